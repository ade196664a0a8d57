package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nikhilit2011/arto-arrears/internal/clients"
	"github.com/nikhilit2011/arto-arrears/internal/domain"
)

const (
	exportTTL    = 24 * time.Hour
	exportSetKey = "export_ids"
)

// ExportStatus is the redis-backed record a browser polls (or receives over
// the websocket) while a ledger export is being generated.
type ExportStatus struct {
	Key      string                 `json:"key"`
	Type     string                 `json:"type"`
	UserID   int64                  `json:"user_id"`
	Filters  map[string]interface{} `json:"filters"`
	Progress float64                `json:"progress"`
	FileURL  *string                `json:"file_url"`
	Error    *string                `json:"error,omitempty"`
	Created  time.Time              `json:"created"`
}

// FileStore is either local disk storage or the S3 client; main decides.
type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

// ExportService generates ledger workbooks in the background, tracking
// progress in redis and pushing events over the websocket hub.
type ExportService struct {
	ledger *LedgerService
	redis  *clients.RedisClient
	store  FileStore
	ws     *clients.WebSocketClient
}

func NewExportService(ledger *LedgerService, redis *clients.RedisClient, store FileStore, ws *clients.WebSocketClient) *ExportService {
	return &ExportService{ledger: ledger, redis: redis, store: store, ws: ws}
}

// StartLedgerExport queues an XLSX ledger export and returns its id.
func (s *ExportService) StartLedgerExport(ctx context.Context, filter LedgerFilter, userID int64) (string, error) {
	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:     exportID,
		Type:    "reconciliation",
		UserID:  userID,
		Filters: ledgerFiltersMap(filter),
		Created: time.Now(),
	}
	if err := s.saveStatus(ctx, status); err != nil {
		return "", err
	}

	go s.runLedgerExport(context.Background(), status, filter)

	return exportID, nil
}

func (s *ExportService) runLedgerExport(ctx context.Context, status *ExportStatus, filter LedgerFilter) {
	rows, err := s.ledger.Build(ctx, filter)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("build ledger failed: %v", err))
		return
	}

	data, err := s.renderLedgerXLSX(ctx, status, rows)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("render workbook failed: %v", err))
		return
	}

	fileName := fmt.Sprintf("reconciliation_%s.xlsx", time.Now().Format("20060102_1504"))

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, 95, "uploading")
	}

	savedName, err := s.store.Save(ctx, fileName, data)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("save export failed: %v", err))
		return
	}

	url := s.store.GetURL(savedName)
	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, status.UserID, status.Key, url, fileName)
	}
}

func (s *ExportService) renderLedgerXLSX(ctx context.Context, status *ExportStatus, rows []LedgerRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Reconciliation"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, header := range ledgerCSVHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	total := len(rows)
	for i, r := range rows {
		values := []any{
			i + 1,
			r.VehicleNumber,
			domain.DateString(r.EarliestPaymentDate),
			r.EarliestPaymentRef,
			domain.DateString(r.TaxArrearFrom),
			domain.FormatMoneyCents(r.ArrearCents),
			domain.FormatMoneyCents(r.PaidCents),
			domain.FormatMoneyCents(r.BalanceCents),
			r.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if (i+1)%1000 == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100)
			if progress >= 100 {
				progress = 90
			}
			status.Progress = progress
			_ = s.saveStatus(ctx, status)
			if s.ws != nil {
				_ = s.ws.NotifyExportProgress(ctx, status.UserID, status.Key, progress, "generating")
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) fail(ctx context.Context, status *ExportStatus, msg string) {
	log.Printf("[EXPORT] %s: %s", status.Key, msg)
	status.Error = &msg
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, status.UserID, status.Key, msg)
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// GetExports lists a user's export statuses, newest first.
func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (*ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, errors.New("export not found")
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}
	if status.UserID != userID {
		return nil, errors.New("export not found")
	}
	return &status, nil
}

func ledgerFiltersMap(f LedgerFilter) map[string]interface{} {
	m := map[string]interface{}{}
	if f.From != nil {
		m["from"] = f.From.Format("2006-01-02")
	} else {
		m["from"] = nil
	}
	if f.To != nil {
		m["to"] = f.To.Format("2006-01-02")
	} else {
		m["to"] = nil
	}
	if f.Status != "" {
		m["status"] = f.Status
	} else {
		m["status"] = nil
	}
	return m
}
