// Package store persists meeting analyses. Each Save writes a new record;
// nothing is ever updated in place.
package store

import (
	"context"
	"fmt"

	"github.com/maastricht-university/meeting-engagement/apperr"
	"github.com/maastricht-university/meeting-engagement/config"
	"github.com/maastricht-university/meeting-engagement/model"
)

// Sink accepts exactly one record per analysed recording and returns the
// identifier it was stored under.
type Sink interface {
	Save(ctx context.Context, m *model.MeetingAnalysis) (string, error)
}

// Open builds the sink selected by c.Kind. The returned close function
// releases any connection.
func Open(ctx context.Context, c config.Store) (Sink, func(context.Context) error, error) {
	switch c.Kind {
	case "mongo":
		return ConnectMongo(ctx, c.Mongo)
	case "json", "":
		s, err := NewFileSink(c.Outputs)
		return s, func(context.Context) error { return nil }, err
	}
	return nil, nil, apperr.E(apperr.KindInput, "store.Open", fmt.Sprintf("unknown store kind %q", c.Kind), nil)
}
