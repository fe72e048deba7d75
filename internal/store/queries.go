package store

import (
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	analysesTable = "analyses"
	eventsTable   = "analysis_events"
	defaultLimit  = 100
)

var analysisColumns = []string{
	"id", "property_address", "analyser_type", "source_type", "status",
	"score", "tier", "recommendation", "result_text", "remarks",
	"attributes", "strengths", "risks",
	"completed_at", "created_at", "updated_at",
}

// queries builds every statement both stores run. Only the placeholder
// format differs between backends.
type queries struct {
	sb sq.StatementBuilderType
}

func newQueries(format sq.PlaceholderFormat) queries {
	return queries{sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

func (q queries) insertAnalysis(a *Analysis) (string, []interface{}, error) {
	vals, err := analysisValues(a)
	if err != nil {
		return "", nil, err
	}
	return q.sb.Insert(analysesTable).Columns(analysisColumns...).Values(vals...).ToSql()
}

func (q queries) getAnalysis(id uuid.UUID) (string, []interface{}, error) {
	return q.sb.Select(analysisColumns...).From(analysesTable).Where(sq.Eq{"id": id.String()}).ToSql()
}

func (q queries) listAnalyses(f AnalysisFilter) (string, []interface{}, error) {
	b := q.sb.Select(analysisColumns...).From(analysesTable)
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	if f.AnalyserType != "" {
		b = b.Where(sq.Eq{"analyser_type": f.AnalyserType})
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	b = b.OrderBy("created_at DESC").Limit(uint64(limit))
	if f.Offset > 0 {
		b = b.Offset(uint64(f.Offset))
	}
	return b.ToSql()
}

func (q queries) pendingAnalyses(limit int) (string, []interface{}, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return q.sb.Select(analysisColumns...).From(analysesTable).
		Where(sq.Eq{"status": string(StatusPending)}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
}

func (q queries) updateAnalysis(a *Analysis) (string, []interface{}, error) {
	vals, err := analysisValues(a)
	if err != nil {
		return "", nil, err
	}
	b := q.sb.Update(analysesTable)
	// id and created_at are immutable
	for i, col := range analysisColumns {
		if col == "id" || col == "created_at" {
			continue
		}
		b = b.Set(col, vals[i])
	}
	return b.Where(sq.Eq{"id": a.ID.String()}).ToSql()
}

func (q queries) deleteAnalysis(id uuid.UUID) (string, []interface{}, error) {
	return q.sb.Delete(analysesTable).Where(sq.Eq{"id": id.String()}).ToSql()
}

func (q queries) claimAnalysis(id uuid.UUID, now time.Time) (string, []interface{}, error) {
	return q.sb.Update(analysesTable).
		Set("status", string(StatusInProgress)).
		Set("updated_at", now).
		Where(sq.Eq{"id": id.String()}).
		Where(sq.NotEq{"status": string(StatusInProgress)}).
		ToSql()
}

func (q queries) insertEvent(e *AnalysisEvent) (string, []interface{}, error) {
	payload, err := jsonValue(e.Payload, e.Payload == nil)
	if err != nil {
		return "", nil, err
	}
	return q.sb.Insert(eventsTable).
		Columns("id", "analysis_id", "event", "payload", "created_at").
		Values(e.ID, e.AnalysisID, e.Event, payload, e.CreatedAt).
		ToSql()
}

func (q queries) analysisEvents(analysisID uuid.UUID) (string, []interface{}, error) {
	return q.sb.Select("id", "analysis_id", "event", "payload", "created_at").
		From(eventsTable).
		Where(sq.Eq{"analysis_id": analysisID.String()}).
		OrderBy("created_at ASC").
		ToSql()
}

func (q queries) stats() (string, []interface{}, error) {
	return q.sb.Select(
		"COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)",
		"AVG(score)",
	).From(analysesTable).ToSql()
}

// analysisValues returns the row for a in analysisColumns order.
func analysisValues(a *Analysis) ([]interface{}, error) {
	var score decimal.NullDecimal
	if a.Score != nil {
		score = decimal.NewNullDecimal(*a.Score)
	}
	attrs, err := jsonValue(a.Attributes, a.Attributes == nil)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	strengths, err := jsonValue(a.Strengths, a.Strengths == nil)
	if err != nil {
		return nil, fmt.Errorf("encode strengths: %w", err)
	}
	risks, err := jsonValue(a.Risks, a.Risks == nil)
	if err != nil {
		return nil, fmt.Errorf("encode risks: %w", err)
	}
	return []interface{}{
		a.ID, a.PropertyAddress, a.AnalyserType, string(a.SourceType), string(a.Status),
		score, a.Tier, a.Recommendation, a.ResultText, a.Remarks,
		attrs, strengths, risks,
		a.CompletedAt, a.CreatedAt, a.UpdatedAt,
	}, nil
}

// jsonValue encodes v as JSON text, or SQL NULL when isNil.
func jsonValue(v interface{}, isNil bool) (interface{}, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	a := &Analysis{}
	var score decimal.NullDecimal
	var sourceType, status string
	var attrsJSON, strengthsJSON, risksJSON []byte
	if err := row.Scan(
		&a.ID, &a.PropertyAddress, &a.AnalyserType, &sourceType, &status,
		&score, &a.Tier, &a.Recommendation, &a.ResultText, &a.Remarks,
		&attrsJSON, &strengthsJSON, &risksJSON,
		&a.CompletedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.SourceType = SourceType(sourceType)
	a.Status = AnalysisStatus(status)
	if score.Valid {
		s := score.Decimal
		a.Score = &s
	}
	if attrsJSON != nil {
		if err := json.Unmarshal(attrsJSON, &a.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", a.ID, err)
		}
	}
	if strengthsJSON != nil {
		_ = json.Unmarshal(strengthsJSON, &a.Strengths)
	}
	if risksJSON != nil {
		_ = json.Unmarshal(risksJSON, &a.Risks)
	}
	return a, nil
}

func scanEvent(row rowScanner) (*AnalysisEvent, error) {
	e := &AnalysisEvent{}
	var payloadJSON []byte
	if err := row.Scan(&e.ID, &e.AnalysisID, &e.Event, &payloadJSON, &e.CreatedAt); err != nil {
		return nil, err
	}
	if payloadJSON != nil {
		_ = json.Unmarshal(payloadJSON, &e.Payload)
	}
	return e, nil
}

// prepareNew fills the generated fields of a freshly created analysis.
func prepareNew(a *Analysis, now time.Time) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.SourceType == "" {
		a.SourceType = SourceAddress
	}
	a.CreatedAt = now
	a.UpdatedAt = now
}
