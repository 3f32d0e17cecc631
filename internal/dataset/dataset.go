// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/recommend/eclat"
)

var (
	// ErrInvalidDataset is returned for malformed CSV input. It wraps
	// eclat.ErrInvalidDataset so callers can match either.
	ErrInvalidDataset = fmt.Errorf("dataset: %w", eclat.ErrInvalidDataset)

	// ErrUnsupportedSource is returned for source schemes other than http,
	// https and file.
	ErrUnsupportedSource = errors.New("unsupported dataset source")

	// ErrFetchFailed is returned when a remote dataset cannot be downloaded.
	ErrFetchFailed = errors.New("dataset fetch failed")
)

// Required CSV columns.
const (
	ColumnPlaylistID = "pid"
	ColumnTrackName  = "track_name"
	ColumnArtistName = "artist_name"
)

// Dataset is a parsed playlist dataset.
type Dataset struct {
	Name      string
	Version   string
	Source    string
	Playlists []models.Playlist
	Stats     models.DatasetStats
}

// Info returns the provenance recorded on trained models.
func (d *Dataset) Info() models.DatasetInfo {
	return models.DatasetInfo{Name: d.Name, Version: d.Version, Source: d.Source}
}

// Parse reads a playlist CSV with a header row. Rows are grouped into
// playlists by pid, in order of each pid's first appearance; items keep
// their row order within a playlist.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidDataset, err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		playlists []models.Playlist
		index     = make(map[string]int)
		unique    = make(map[models.Item]struct{})
		rows      int
	)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidDataset, line, err)
		}
		if len(rec) <= cols.max {
			return nil, fmt.Errorf("%w: row %d: expected at least %d fields, got %d", ErrInvalidDataset, line, cols.max+1, len(rec))
		}

		pid := strings.TrimSpace(rec[cols.pid])
		track := rec[cols.track]
		artist := rec[cols.artist]
		switch {
		case pid == "":
			return nil, fmt.Errorf("%w: row %d: empty %s", ErrInvalidDataset, line, ColumnPlaylistID)
		case strings.TrimSpace(track) == "":
			return nil, fmt.Errorf("%w: row %d: empty %s", ErrInvalidDataset, line, ColumnTrackName)
		case strings.TrimSpace(artist) == "":
			return nil, fmt.Errorf("%w: row %d: empty %s", ErrInvalidDataset, line, ColumnArtistName)
		}

		item := models.NewItem(track, artist)
		i, ok := index[pid]
		if !ok {
			i = len(playlists)
			index[pid] = i
			playlists = append(playlists, models.Playlist{ID: pid})
		}
		playlists[i].Items = append(playlists[i].Items, item)
		unique[item] = struct{}{}
		rows++
	}

	if rows == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidDataset)
	}

	return &Dataset{
		Playlists: playlists,
		Stats: models.DatasetStats{
			TotalRows:      rows,
			TotalPlaylists: len(playlists),
			UniqueItems:    len(unique),
		},
	}, nil
}

type columns struct {
	pid, track, artist, max int
}

func locateColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	c := columns{
		pid:    lookup(ColumnPlaylistID),
		track:  lookup(ColumnTrackName),
		artist: lookup(ColumnArtistName),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: missing required columns %s", ErrInvalidDataset, strings.Join(missing, ", "))
	}
	c.max = max(c.pid, c.track, c.artist)
	return c, nil
}
