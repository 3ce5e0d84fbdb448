package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bizcribe/bizcribe-backend/config"
	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	"github.com/bizcribe/bizcribe-backend/internal/app/repository"
	"github.com/bizcribe/bizcribe-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Bulk-loads pre-approved businesses from an XLSX export. Expected columns:
// name, description, phone_number, address1, city, state, zip, lat, lng.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	businessRepo := repository.NewBusinessRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	businesses, err := readBusinessesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total businesses to import: %d\n", len(businesses))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 1000
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := businessRepo.BulkCreate(businesses, batchSize); err != nil {
		log.Fatal("Failed to bulk create businesses:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total businesses imported: %d\n", len(businesses))
}

func readBusinessesFromXLSX(filePath string) ([]model.Business, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows found")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("missing required column: name")
	}

	cell := func(row []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	now := time.Now()
	var businesses []model.Business
	for _, row := range rows[1:] {
		name := cell(row, "name")
		if name == "" {
			continue
		}

		business := model.Business{
			Name:        name,
			Description: cell(row, "description"),
			PhoneNumber: cell(row, "phone_number"),
			Address1:    cell(row, "address1"),
			City:        cell(row, "city"),
			State:       cell(row, "state"),
			Zip:         cell(row, "zip"),
			Lat:         parseFloat(cell(row, "lat")),
			Lng:         parseFloat(cell(row, "lng")),
			IsApproved:  true,
			ApprovedAt:  &now,
		}

		var parts []string
		for _, p := range []string{business.Address1, business.City, business.State, business.Zip} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		business.Location = strings.Join(parts, ", ")

		businesses = append(businesses, business)
	}

	return businesses, nil
}

func parseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
