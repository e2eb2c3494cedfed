package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"serio/internal/core/id"
	"serio/internal/domain/invoicing"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// ArchiveRecord is a finalized, immutable document snapshot kept for the
// dashboard's archive screen. Large payloads are stored zstd-compressed.
type ArchiveRecord struct {
	ID                id.ID           `db:"id"`
	DocumentType      string          `db:"document_type"` // e.g. "invoice", "purchase_order"
	DocumentID        string          `db:"document_id"`
	Number            string          `db:"number"` // display number, e.g. INV-2026-01006
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	ArchivedBy        string          `db:"archived_by"`
	ArchivedAt        time.Time       `db:"archived_at"`
}

// ArchiveService stores and retrieves finalized document snapshots.
type ArchiveService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes, default 10KB
}

// NewArchiveService creates a new archive service.
func NewArchiveService(txManager *TxManager) (*ArchiveService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ArchiveService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Store archives a finished document. The payload is immutable once
// written; there is no update path.
func (s *ArchiveService) Store(ctx context.Context, rec ArchiveRecord) (id.ID, error) {
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}

	rec.CompressionAlgo = CompressionNone
	if len(rec.Payload) > s.compressThreshold {
		rec.PayloadCompressed = s.encoder.EncodeAll(rec.Payload, nil)
		rec.Payload = nil
		rec.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO archive_documents (
			id, document_type, document_id, number,
			payload, payload_compressed, compression_algo,
			archived_by, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		rec.ID, rec.DocumentType, rec.DocumentID, rec.Number,
		rec.Payload, rec.PayloadCompressed, rec.CompressionAlgo,
		rec.ArchivedBy, rec.ArchivedAt,
	)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert archive record: %w", err)
	}
	return rec.ID, nil
}

// ArchiveInvoice snapshots a finished invoice into the archive. Satisfies
// invoicing.Archiver.
func (s *ArchiveService) ArchiveInvoice(ctx context.Context, inv *invoicing.Invoice, actor string) (id.ID, error) {
	payload, err := json.Marshal(inv)
	if err != nil {
		return id.Nil(), fmt.Errorf("marshal invoice: %w", err)
	}

	return s.Store(ctx, ArchiveRecord{
		DocumentType: "invoice",
		DocumentID:   inv.DocumentID,
		Number:       inv.DisplayNumber,
		Payload:      payload,
		ArchivedBy:   actor,
	})
}

// Get retrieves an archived document with its payload decompressed.
func (s *ArchiveService) Get(ctx context.Context, recID id.ID) (*ArchiveRecord, error) {
	sql := `
		SELECT id, document_type, document_id, number,
		       payload, payload_compressed, compression_algo,
		       archived_by, archived_at
		FROM archive_documents
		WHERE id = $1
	`

	var rec ArchiveRecord
	querier := s.txManager.GetQuerier(ctx)
	row := querier.QueryRow(ctx, sql, recID)
	if err := row.Scan(
		&rec.ID, &rec.DocumentType, &rec.DocumentID, &rec.Number,
		&rec.Payload, &rec.PayloadCompressed, &rec.CompressionAlgo,
		&rec.ArchivedBy, &rec.ArchivedAt,
	); err != nil {
		return nil, fmt.Errorf("load archive record: %w", err)
	}

	if rec.CompressionAlgo == CompressionZstd {
		payload, err := s.decoder.DecodeAll(rec.PayloadCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress archive payload: %w", err)
		}
		rec.Payload = payload
		rec.PayloadCompressed = nil
		rec.CompressionAlgo = CompressionNone
	}

	return &rec, nil
}
