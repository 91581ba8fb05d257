package models

import (
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Column Mismatch Report Usage:

This file contains functionality to generate a report of database columns that aren't
accounted for as variables in the corresponding Go model structs.

To generate the report:

1. Set the environment variable: GENERATE_COLUMN_REPORT=true
2. Run the application: go run .

The report will show:
- Each table name
- List of columns that exist in the database but not in the Go model
- Summary of total mismatched columns across all tables

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: projects ---
Found 1 columns not accounted for in model:
  - published

--- Table: users ---
All columns are accounted for in the model.

=== SUMMARY ===
Total mismatched columns across all tables: 1
*/

// All returns every persisted model, in dependency order.
func All() []any {
	return []any{&User{}, &Project{}, &ProjectImage{}}
}

// modelMappings maps table name to model struct for reporting.
var modelMappings = map[string]any{
	"users":          User{},
	"projects":       Project{},
	"project_images": ProjectImage{},
}

func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Set up verbose logging for migration
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})

	g.UseDB(db)
	g.ApplyBasic(
		User{},
		Project{},
		ProjectImage{},
	)

	migrateDB := db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
		Logger:                 newLogger,
	})

	fmt.Println("Migrating models...")
	if err := migrateDB.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}

	GenerateColumnMismatchReport(db)

	g.Execute()
	fmt.Println("Model generation complete!")
	return nil
}

// GenerateColumnMismatchReport generates a report of database columns that aren't accounted for in Go models
func GenerateColumnMismatchReport(db *gorm.DB) int {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")
	fmt.Println("Generating report of database columns not accounted for in Go models...")

	tables := make([]string, 0, len(modelMappings))
	for tableName := range modelMappings {
		tables = append(tables, tableName)
	}
	sort.Strings(tables)

	totalMismatches := 0

	for _, tableName := range tables {
		fmt.Printf("\n--- Table: %s ---\n", tableName)

		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			if errors.Is(err, errTableMissing) {
				fmt.Printf("Table does not exist yet (will be created during migration)\n")
			} else {
				fmt.Printf("Error getting columns for table %s: %v\n", tableName, err)
			}
			continue
		}

		mismatches := findColumnMismatches(dbColumns, getModelFields(modelMappings[tableName]))

		if len(mismatches) > 0 {
			fmt.Printf("Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Printf("  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Println("All columns are accounted for in the model.")
		}
	}

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Total mismatched columns across all tables: %d\n", totalMismatches)
	return totalMismatches
}

var errTableMissing = errors.New("table does not exist")

// getTableColumns retrieves column names through the dialect's migrator so the
// report works on both sqlite and postgres.
func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	migrator := db.Migrator()
	if !migrator.HasTable(tableName) {
		return nil, fmt.Errorf("%s: %w", tableName, errTableMissing)
	}

	columnTypes, err := migrator.ColumnTypes(tableName)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}

	columns := make([]string, 0, len(columnTypes))
	for _, ct := range columnTypes {
		columns = append(columns, ct.Name())
	}
	return columns, nil
}

// getModelFields extracts column names from a Go struct using reflection
func getModelFields(model any) []string {
	var fields []string
	naming := schema.NamingStrategy{}
	t := reflect.TypeOf(model)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip embedded structs and associations
		if field.Anonymous {
			continue
		}
		kind := field.Type.Kind()
		if kind == reflect.Slice || (kind == reflect.Struct && field.Type.String() != "time.Time") {
			continue
		}

		gormTag := field.Tag.Get("gorm")
		if gormTag == "-" {
			continue
		}
		if columnName := extractColumnNameFromGormTag(gormTag); columnName != "" {
			fields = append(fields, columnName)
			continue
		}
		fields = append(fields, naming.ColumnName("", field.Name))
	}

	return fields
}

// extractColumnNameFromGormTag extracts the column name from a GORM tag
func extractColumnNameFromGormTag(gormTag string) string {
	parts := strings.Split(gormTag, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	return ""
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool)
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}

	return mismatches
}
