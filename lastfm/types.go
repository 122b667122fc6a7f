package lastfm

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

type ArtistSummary struct {
	Name      string
	URL       string
	MBID      string
	Listeners int64
}

type TagSummary struct {
	Name  string
	URL   string
	Count int64
}

type TrackSummary struct {
	Name      string
	Artist    string
	URL       string
	Listeners int64
}

type AlbumSummary struct {
	Name      string
	Artist    string
	URL       string
	Playcount int64
}

// number is an integer that Last.fm sometimes sends as a string, as in
// "listeners": "1209764".
type number int64

func (n *number) UnmarshalJSON(bs []byte) error {
	bs = bytes.Trim(bs, `"`)
	if len(bs) == 0 || string(bs) == "null" {
		*n = 0
		return nil
	}
	i, err := strconv.ParseInt(string(bs), 10, 64)
	if err != nil {
		// not worth failing a whole response over
		*n = 0
		return nil
	}
	*n = number(i)
	return nil
}

// list is a json array that Last.fm sends as a bare object when it has
// exactly one element, and as "" or null when it has none.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(bs []byte) error {
	bs = bytes.TrimSpace(bs)
	if len(bs) == 0 {
		return nil
	}
	switch bs[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(bs, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var item T
		if err := json.Unmarshal(bs, &item); err != nil {
			return err
		}
		*l = []T{item}
	default:
		*l = nil
	}
	return nil
}

// artistRef is an artist reference, which is a plain string in search
// results and an object elsewhere.
type artistRef string

func (n *artistRef) UnmarshalJSON(bs []byte) error {
	bs = bytes.TrimSpace(bs)
	if len(bs) > 0 && bs[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(bs, &obj); err != nil {
			return err
		}
		*n = artistRef(obj.Name)
		return nil
	}
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return nil
	}
	*n = artistRef(s)
	return nil
}

type wireArtist struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	MBID      string `json:"mbid"`
	Listeners number `json:"listeners"`
}

type wireTag struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Count number `json:"count"`
}

type wireTrack struct {
	Name      string    `json:"name"`
	Artist    artistRef `json:"artist"`
	URL       string    `json:"url"`
	Listeners number    `json:"listeners"`
}

type wireAlbum struct {
	Name      string    `json:"name"`
	Artist    artistRef `json:"artist"`
	URL       string    `json:"url"`
	Playcount number    `json:"playcount"`
}

type artistSearchPage struct {
	Results struct {
		TotalResults  number `json:"opensearch:totalResults"`
		ArtistMatches struct {
			Artist list[wireArtist] `json:"artist"`
		} `json:"artistmatches"`
	} `json:"results"`
}

type trackSearchPage struct {
	Results struct {
		TotalResults number `json:"opensearch:totalResults"`
		TrackMatches struct {
			Track list[wireTrack] `json:"track"`
		} `json:"trackmatches"`
	} `json:"results"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag list[wireTag] `json:"tag"`
	} `json:"toptags"`
}

type similarTagsResponse struct {
	SimilarTags struct {
		Tag list[wireTag] `json:"tag"`
	} `json:"similartags"`
}

type topArtistsResponse struct {
	TopArtists struct {
		Artist list[wireArtist] `json:"artist"`
	} `json:"topartists"`
}

type topAlbumsResponse struct {
	TopAlbums struct {
		Album list[wireAlbum] `json:"album"`
	} `json:"topalbums"`
}

// errorEnvelope is what Last.fm sends instead of a payload when a call
// fails, often with a 200 status.
type errorEnvelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func artistSummaries(in list[wireArtist]) []ArtistSummary {
	out := make([]ArtistSummary, 0, len(in))
	for _, a := range in {
		if a.Name == "" {
			continue
		}
		out = append(out, ArtistSummary{Name: a.Name, URL: a.URL, MBID: a.MBID, Listeners: int64(a.Listeners)})
	}
	return out
}

func tagSummaries(in list[wireTag]) []TagSummary {
	out := make([]TagSummary, 0, len(in))
	for _, t := range in {
		if t.Name == "" {
			continue
		}
		out = append(out, TagSummary{Name: t.Name, URL: t.URL, Count: int64(t.Count)})
	}
	return out
}

func trackSummaries(in list[wireTrack]) []TrackSummary {
	out := make([]TrackSummary, 0, len(in))
	for _, t := range in {
		if t.Name == "" || t.Artist == "" {
			continue
		}
		out = append(out, TrackSummary{Name: t.Name, Artist: string(t.Artist), URL: t.URL, Listeners: int64(t.Listeners)})
	}
	return out
}

func albumSummaries(in list[wireAlbum]) []AlbumSummary {
	out := make([]AlbumSummary, 0, len(in))
	for _, a := range in {
		if a.Name == "" {
			continue
		}
		out = append(out, AlbumSummary{Name: a.Name, Artist: string(a.Artist), URL: a.URL, Playcount: int64(a.Playcount)})
	}
	return out
}
