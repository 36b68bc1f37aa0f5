package incident

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Load reads incident rows from a CSV or XLSX file, dispatching on the file
// extension. sheet is only consulted for XLSX input; empty selects the first
// sheet.
func Load(path, sheet string) ([]IncidentRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// LoadCSV reads incident rows from a CSV file. The first row must be a
// header; columns are located by name so column order does not matter.
func LoadCSV(path string) ([]IncidentRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	var records []IncidentRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		records = append(records, recordFromRow(row, cols))
	}

	return records, nil
}

// LoadXLSX reads incident rows from an Excel workbook.
func LoadXLSX(path, sheet string) ([]IncidentRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open XLSX file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets: %s", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	cols := indexColumns(rows[0])
	records := make([]IncidentRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(row, cols))
	}

	return records, nil
}

// columnIndex maps semantic fields to header positions; -1 means absent.
type columnIndex struct {
	occurDate, area, precinct, jurisdiction             int
	perpAge, perpSex, perpRace                          int
	victimAge, victimSex, victimRace                    int
	fatal, occurTime, locationDesc, latitude, longitude int
}

// indexColumns locates columns by header name. Several historical header
// spellings are accepted for each field.
func indexColumns(header []string) columnIndex {
	cols := columnIndex{
		occurDate: -1, area: -1, precinct: -1, jurisdiction: -1,
		perpAge: -1, perpSex: -1, perpRace: -1,
		victimAge: -1, victimSex: -1, victimRace: -1,
		fatal: -1, occurTime: -1, locationDesc: -1, latitude: -1, longitude: -1,
	}

	for i, col := range header {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case "OCCUR_DATE", "DATE":
			cols.occurDate = i
		case "AREA", "BORO", "BOROUGH":
			cols.area = i
		case "PRECINCT":
			cols.precinct = i
		case "JURISDICTION_CODE", "JURISDICTION":
			cols.jurisdiction = i
		case "PERP_AGE_GROUP":
			cols.perpAge = i
		case "PERP_SEX":
			cols.perpSex = i
		case "PERP_RACE":
			cols.perpRace = i
		case "VIC_AGE_GROUP", "VICTIM_AGE_GROUP":
			cols.victimAge = i
		case "VIC_SEX", "VICTIM_SEX":
			cols.victimSex = i
		case "VIC_RACE", "VICTIM_RACE":
			cols.victimRace = i
		case "STATISTICAL_MURDER_FLAG", "FATAL":
			cols.fatal = i
		case "OCCUR_TIME", "TIME":
			cols.occurTime = i
		case "LOCATION_DESC", "LOCATION":
			cols.locationDesc = i
		case "LATITUDE":
			cols.latitude = i
		case "LONGITUDE":
			cols.longitude = i
		}
	}

	return cols
}

// recordFromRow builds a raw record from a data row; absent columns stay "".
func recordFromRow(row []string, cols columnIndex) IncidentRecord {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	return IncidentRecord{
		OccurDate:    cell(cols.occurDate),
		Area:         cell(cols.area),
		Precinct:     cell(cols.precinct),
		Jurisdiction: cell(cols.jurisdiction),
		PerpAgeGroup: cell(cols.perpAge),
		PerpSex:      cell(cols.perpSex),
		PerpRace:     cell(cols.perpRace),
		VictimAge:    cell(cols.victimAge),
		VictimSex:    cell(cols.victimSex),
		VictimRace:   cell(cols.victimRace),
		Fatal:        cell(cols.fatal),
		OccurTime:    cell(cols.occurTime),
		LocationDesc: cell(cols.locationDesc),
		Latitude:     cell(cols.latitude),
		Longitude:    cell(cols.longitude),
	}
}
