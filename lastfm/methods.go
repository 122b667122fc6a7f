package lastfm

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
)

// SearchArtistsByLetter searches for artists matching "<letter>*", reading
// up to the page cap of results.
func (c *Client) SearchArtistsByLetter(ctx context.Context, letter string, limit int) []ArtistSummary {
	var artists []ArtistSummary
	c.paginate(ctx, "artist.search", map[string]string{"artist": letter + "*"}, limit, func(body []byte) (int64, error) {
		var page artistSearchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, err
		}
		artists = append(artists, artistSummaries(page.Results.ArtistMatches.Artist)...)
		return int64(page.Results.TotalResults), nil
	})
	return artists
}

// SearchTracksByLetter is SearchArtistsByLetter for tracks.
func (c *Client) SearchTracksByLetter(ctx context.Context, letter string, limit int) []TrackSummary {
	var tracks []TrackSummary
	c.paginate(ctx, "track.search", map[string]string{"track": letter + "*"}, limit, func(body []byte) (int64, error) {
		var page trackSearchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, err
		}
		tracks = append(tracks, trackSummaries(page.Results.TrackMatches.Track)...)
		return int64(page.Results.TotalResults), nil
	})
	return tracks
}

func (c *Client) GetArtistTopTags(ctx context.Context, artist string) []TagSummary {
	var resp topTagsResponse
	if !c.call(ctx, "artist.getTopTags", map[string]string{"artist": artist}, &resp) {
		return nil
	}
	return tagSummaries(resp.TopTags.Tag)
}

func (c *Client) GetArtistTopAlbums(ctx context.Context, artist string, limit int) []AlbumSummary {
	var resp topAlbumsResponse
	if !c.call(ctx, "artist.getTopAlbums", map[string]string{"artist": artist, "limit": strconv.Itoa(limit)}, &resp) {
		return nil
	}
	return albumSummaries(resp.TopAlbums.Album)
}

func (c *Client) GetAlbumTopTags(ctx context.Context, artist, album string) []TagSummary {
	var resp topTagsResponse
	if !c.call(ctx, "album.getTopTags", map[string]string{"artist": artist, "album": album}, &resp) {
		return nil
	}
	return tagSummaries(resp.TopTags.Tag)
}

func (c *Client) GetTrackTopTags(ctx context.Context, artist, track string) []TagSummary {
	var resp topTagsResponse
	if !c.call(ctx, "track.getTopTags", map[string]string{"artist": artist, "track": track}, &resp) {
		return nil
	}
	return tagSummaries(resp.TopTags.Tag)
}

// GetSimilarTags returns the tags Last.fm considers similar to the given
// one.
func (c *Client) GetSimilarTags(ctx context.Context, tag string) []TagSummary {
	var resp similarTagsResponse
	if !c.call(ctx, "tag.getSimilar", map[string]string{"tag": tag}, &resp) {
		return nil
	}
	return tagSummaries(resp.SimilarTags.Tag)
}

func (c *Client) GetTopArtistsByCountry(ctx context.Context, country string, limit int) []ArtistSummary {
	var resp topArtistsResponse
	if !c.call(ctx, "geo.getTopArtists", map[string]string{"country": country, "limit": strconv.Itoa(limit)}, &resp) {
		return nil
	}
	return artistSummaries(resp.TopArtists.Artist)
}

func (c *Client) GetTopArtistsByGenre(ctx context.Context, tag string, limit int) []ArtistSummary {
	var resp topArtistsResponse
	if !c.call(ctx, "tag.getTopArtists", map[string]string{"tag": tag, "limit": strconv.Itoa(limit)}, &resp) {
		return nil
	}
	return artistSummaries(resp.TopArtists.Artist)
}

// GetTopTags returns Last.fm's most used tags overall.
func (c *Client) GetTopTags(ctx context.Context) []TagSummary {
	var resp topTagsResponse
	if !c.call(ctx, "tag.getTopTags", map[string]string{}, &resp) {
		return nil
	}
	return tagSummaries(resp.TopTags.Tag)
}
