package export

import (
	"bytes"
	"context"
	"encoding/json"

	"kitsusync/internal/logging"
	"kitsusync/internal/services"
)

// FetchSequences returns a project's sequences in upstream order.
func (e *Exporter) FetchSequences(ctx context.Context, projectID string) ([]Sequence, error) {
	records, err := e.api.Sequences(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sequences := make([]Sequence, 0, len(records))
	for _, record := range records {
		sequences = append(sequences, Sequence{Name: record.Name, ID: record.ID})
	}
	return sequences, nil
}

// FetchCasting returns the raw casting of one sequence, or nil when the
// server returned an empty collection.
func (e *Exporter) FetchCasting(ctx context.Context, projectID, sequenceID string) (json.RawMessage, error) {
	raw, err := e.api.Casting(ctx, projectID, sequenceID)
	if err != nil {
		return nil, err
	}
	empty, err := isEmptyCollection(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "export", "casting", sequenceID, err)
	}
	if empty {
		return nil, nil
	}
	return raw, nil
}

func (e *Exporter) exportCasting(ctx context.Context, projectID string, sequences []Sequence) error {
	logger := logging.WithContext(ctx, e.logger)
	for _, sequence := range sequences {
		casting, err := e.FetchCasting(ctx, projectID, sequence.ID)
		if err != nil {
			return err
		}
		if casting == nil {
			logger.Debug("no casting for sequence", logging.String("sequence", sequence.Name))
			continue
		}
		if _, err := e.writer.WriteCasting(projectID, sequence.ID, casting); err != nil {
			return err
		}
		e.summary.CastingFiles++
	}
	return nil
}

// isEmptyCollection reports whether raw is null, {} or [].
func isEmptyCollection(raw json.RawMessage) (bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true, nil
	}
	switch trimmed[0] {
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return false, err
		}
		return len(m) == 0, nil
	case '[':
		var l []json.RawMessage
		if err := json.Unmarshal(trimmed, &l); err != nil {
			return false, err
		}
		return len(l) == 0, nil
	default:
		return false, nil
	}
}
