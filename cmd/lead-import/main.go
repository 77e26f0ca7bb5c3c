// Command lead-import loads leads from a CSV file into a tenant through the
// regular lead pipeline, so scoring, dedup and reactivation all apply.
//
// Expected header: email,first_name,last_name,company_name,job_title,phone,source,notes
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/google/uuid"
)

const batchSize = 100

func main() {
	filePath := flag.String("file", "", "path to the CSV file")
	tenantArg := flag.String("tenant", "", "tenant id to import into")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	if *filePath == "" || *tenantArg == "" {
		log.Error("usage: lead-import -file leads.csv -tenant <uuid>")
		os.Exit(2)
	}
	tenantID, err := uuid.Parse(*tenantArg)
	if err != nil {
		log.Error("invalid tenant id", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	leadsModule := leads.NewModule(pool, eventBus, val, log)
	svc := leadsModule.Service()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Error("failed to open csv file", "error", err)
		panic("failed to open csv file: " + err.Error())
	}
	defer file.Close()

	rows, err := readLeadRows(file)
	if err != nil {
		log.Error("failed to read csv file", "error", err)
		panic("failed to read csv file: " + err.Error())
	}
	log.Info("parsed csv file", "file", *filePath, "rows", len(rows))

	created, failed := 0, 0
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		result, err := svc.CreateBulk(ctx, tenantID, nil, transport.BulkCreateLeadsRequest{
			Leads: rows[start:end],
		})
		if err != nil {
			log.Error("batch rejected", "offset", start, "error", err)
			failed += end - start
			continue
		}

		created += len(result.Created)
		failed += len(result.Errors)
		for _, entryErr := range result.Errors {
			log.Warn("lead skipped", "row", start+entryErr.Index+1, "email", entryErr.Email, "reason", entryErr.Error)
		}
	}

	log.Info("import complete", "created", created, "failed", failed)
}

// readLeadRows parses the CSV into create requests. Column order follows the
// header row; unknown columns are ignored.
func readLeadRows(r io.Reader) ([]transport.CreateLeadRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("missing header row")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["email"]; !ok {
		return nil, errors.New("header row has no email column")
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []transport.CreateLeadRequest
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if field(record, "email") == "" {
			continue
		}

		rows = append(rows, transport.CreateLeadRequest{
			Email:       field(record, "email"),
			FirstName:   field(record, "first_name"),
			LastName:    field(record, "last_name"),
			CompanyName: field(record, "company_name"),
			JobTitle:    field(record, "job_title"),
			Phone:       field(record, "phone"),
			Source:      field(record, "source"),
			Notes:       field(record, "notes"),
		})
	}
	return rows, nil
}
