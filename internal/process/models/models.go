// Package models defines the domain entities for legal-process tracking:
// raw documents as returned by the jurisdiction search APIs, the persisted
// record types, and the reconciled read-only view row.
package models

// CodeName is a code/name pair nested in source documents (class, format,
// system). Both fields are independently nullable; a missing sub-object
// decodes as a nil pointer and yields empty defaults.
type CodeName struct {
	Code *int64  `json:"codigo"`
	Name *string `json:"nome"`
}

// JudgingBody is the deciding body attached to a process.
type JudgingBody struct {
	Code         *int64  `json:"codigo"`
	Name         *string `json:"nome"`
	Municipality *int64  `json:"codigoMunicipioIBGE"`
}

// MovementBody is the originating body attached to a movement. The source
// API uses different key names here than on the process-level body.
type MovementBody struct {
	Code *int64  `json:"codigoOrgao"`
	Name *string `json:"nomeOrgao"`
}

// RawMovement is one timeline event inside a source document.
type RawMovement struct {
	Code       *int64        `json:"codigo"`
	Name       *string       `json:"nome"`
	OccurredAt *string       `json:"dataHora"`
	Body       *MovementBody `json:"orgaoJulgador"`
}

// Document is the _source payload of one search hit. Every field is optional;
// the decoder tolerates missing sub-objects so a sparse document still
// produces a usable record.
type Document struct {
	ID                   *string       `json:"id"`
	Court                *string       `json:"tribunal"`
	Number               *string       `json:"numeroProcesso"`
	Degree               *string       `json:"grau"`
	FilingDate           *string       `json:"dataAjuizamento"`
	ConfidentialityLevel *int64        `json:"nivelSigilo"`
	Class                *CodeName     `json:"classe"`
	Format               *CodeName     `json:"formato"`
	System               *CodeName     `json:"sistema"`
	Body                 *JudgingBody  `json:"orgaoJulgador"`
	LastUpdatedAt        *string       `json:"dataHoraUltimaAtualizacao"`
	IndexedAt            *string       `json:"@timestamp"`
	Movements            []RawMovement `json:"movimentos"`
}

// ProcessRecord is the flattened, append-only snapshot of a process as last
// seen from a source. Multiple rows may exist per process number; only the
// most recently updated one is canonical.
type ProcessRecord struct {
	ExternalID           *string `json:"id"`
	Court                *string `json:"court"`
	Number               string  `json:"process_number"`
	Degree               *string `json:"degree"`
	FilingDate           *string `json:"filing_date"`
	ConfidentialityLevel *int64  `json:"confidentiality_level"`
	ClassCode            *int64  `json:"class_code"`
	ClassName            *string `json:"class_name"`
	FormatCode           *int64  `json:"format_code"`
	FormatName           *string `json:"format_name"`
	SystemCode           *int64  `json:"system_code"`
	SystemName           *string `json:"system_name"`
	BodyCode             *int64  `json:"body_code"`
	BodyName             *string `json:"body_name"`
	BodyMunicipality     *int64  `json:"body_municipality"`
	LastUpdatedAt        *string `json:"last_updated_at"`
	IndexedAt            *string `json:"indexed_at"`
}

// MovementRecord is one appended timeline event, keyed to its process by
// number (by value, not by reference).
type MovementRecord struct {
	Number     string  `json:"process_number"`
	Code       *int64  `json:"code"`
	Name       *string `json:"name"`
	OccurredAt *string `json:"occurred_at"`
	BodyCode   *int64  `json:"body_code"`
	BodyName   *string `json:"body_name"`
}

// IndexEntry is the master dedup ledger row: at most one per canonical
// process number. Re-ingestion touches only LastUpdatedAt.
type IndexEntry struct {
	Number          string `json:"process_number"`
	FirstCourt      string `json:"first_court"`
	FirstIncludedAt string `json:"first_included_at"`
	LastUpdatedAt   string `json:"last_updated_at"`
}

// ReconciledRow is one row of the derived view: exactly one per distinct
// process number, latest snapshot attributes plus category and latest
// movement name when available.
type ReconciledRow struct {
	Number         string  `json:"process_number"`
	Court          *string `json:"court"`
	SystemName     *string `json:"system_name"`
	LastUpdatedAt  *string `json:"last_updated_at"`
	Category       *string `json:"category"`
	LatestMovement *string `json:"latest_movement"`
}

// ProcessRecord flattens the document into its persisted snapshot form.
// Nil sub-objects become nil columns, never a decode failure.
func (d Document) ProcessRecord() ProcessRecord {
	rec := ProcessRecord{
		ExternalID:           d.ID,
		Court:                d.Court,
		Degree:               d.Degree,
		FilingDate:           d.FilingDate,
		ConfidentialityLevel: d.ConfidentialityLevel,
		LastUpdatedAt:        d.LastUpdatedAt,
		IndexedAt:            d.IndexedAt,
	}
	if d.Number != nil {
		rec.Number = *d.Number
	}
	if d.Class != nil {
		rec.ClassCode, rec.ClassName = d.Class.Code, d.Class.Name
	}
	if d.Format != nil {
		rec.FormatCode, rec.FormatName = d.Format.Code, d.Format.Name
	}
	if d.System != nil {
		rec.SystemCode, rec.SystemName = d.System.Code, d.System.Name
	}
	if d.Body != nil {
		rec.BodyCode, rec.BodyName = d.Body.Code, d.Body.Name
		rec.BodyMunicipality = d.Body.Municipality
	}
	return rec
}

// MovementRecords flattens the document's movement list, keyed by the
// document's process number.
func (d Document) MovementRecords() []MovementRecord {
	if len(d.Movements) == 0 {
		return nil
	}
	number := ""
	if d.Number != nil {
		number = *d.Number
	}
	out := make([]MovementRecord, 0, len(d.Movements))
	for _, m := range d.Movements {
		rec := MovementRecord{
			Number:     number,
			Code:       m.Code,
			Name:       m.Name,
			OccurredAt: m.OccurredAt,
		}
		if m.Body != nil {
			rec.BodyCode, rec.BodyName = m.Body.Code, m.Body.Name
		}
		out = append(out, rec)
	}
	return out
}
