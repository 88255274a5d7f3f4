package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/models"
	"github.com/Pedrom2002/airline-satisfaction-webapp/internal/scoring"
)

// PreviewRows caps how many scored rows the results page shows.
const PreviewRows = 100

// requiredColumns must be present in an uploaded CSV before scoring.
var requiredColumns = []string{
	"Age",
	"Flight Distance",
	"Departure Delay in Minutes",
	"Arrival Delay in Minutes",
}

// PredictionService runs the batch pipeline: parse the CSV, derive
// features, score every record, persist the upload and its predictions,
// and write the enriched CSV for later download.
type PredictionService struct {
	DB        *gorm.DB
	Model     *scoring.Model
	UploadDir string
}

func NewPredictionService(conn *gorm.DB, model *scoring.Model, uploadDir string) *PredictionService {
	return &PredictionService{DB: conn, Model: model, UploadDir: uploadDir}
}

// BatchResult summarizes one processed upload for the results page.
type BatchResult struct {
	UploadID      uint
	Filename      string // stored name, for the download link
	NumPassengers int

	SatisfactionRate float64 // % predicted positive
	AvgProbability   float64 // %
	Accuracy         *float64
	RocAuc           *float64

	AvgTotalDelay         float64
	AvgDelayRatio         float64
	DelayIndicatorRate    float64 // %
	AvgServiceScore       float64
	AvgServiceConsistency float64
	AvgServiceEntropy     float64

	PreviewColumns []string
	PreviewRows    [][]string
}

// Process scores every row of the CSV and persists the batch for userID.
func (s *PredictionService) Process(userID uint, r io.Reader, originalFilename string) (*BatchResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: "unreadable_csv"}
	}
	colIdx := map[string]int{}
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, &ValidationError{Field: "file", Reason: "missing_column: " + col}
		}
	}
	for _, col := range scoring.ServiceColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, &ValidationError{Field: "file", Reason: "missing_column: " + col}
		}
	}

	var records [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ValidationError{Field: "file", Reason: "unreadable_csv"}
		}
		records = append(records, row)
	}
	if len(records) == 0 {
		return nil, &ValidationError{Field: "file", Reason: "empty_csv"}
	}

	classes := s.Model.Classes()
	_, hasTruth := colIdx["satisfaction"]
	idIdx, hasID := colIdx["id"]

	res := &BatchResult{NumPassengers: len(records)}
	preds := make([]string, len(records))
	probs := make([]float64, len(records))
	truth := make([]string, 0, len(records))
	feats := make([]scoring.Features, len(records))

	for i, row := range records {
		age := cellFloat(row, colIdx["Age"])
		distance := cellFloat(row, colIdx["Flight Distance"])
		depDelay := cellFloat(row, colIdx["Departure Delay in Minutes"])
		arrDelay := cellFloat(row, colIdx["Arrival Delay in Minutes"])
		services := make([]float64, len(scoring.ServiceColumns))
		for j, col := range scoring.ServiceColumns {
			services[j] = cellFloat(row, colIdx[col])
		}
		f := scoring.Engineer(age, distance, depDelay, arrDelay, services)
		feats[i] = f

		inputs := f.AsMap()
		inputs["Age"] = age
		inputs["Flight Distance"] = distance
		inputs["Departure Delay in Minutes"] = depDelay
		inputs["Arrival Delay in Minutes"] = arrDelay
		for j, col := range scoring.ServiceColumns {
			inputs[col] = services[j]
		}
		preds[i], probs[i] = s.Model.Predict(inputs)

		if hasTruth {
			truth = append(truth, strings.TrimSpace(cell(row, colIdx["satisfaction"])))
		}
	}

	// Batch metrics.
	var positive int
	for i := range records {
		res.AvgTotalDelay += feats[i].TotalDelay
		res.AvgDelayRatio += feats[i].DelayRatio
		res.DelayIndicatorRate += float64(feats[i].DelayIndicator)
		res.AvgServiceScore += feats[i].ServiceScore
		res.AvgServiceConsistency += feats[i].ServiceConsistency
		res.AvgServiceEntropy += feats[i].ServiceEntropy
		res.AvgProbability += probs[i]
		if preds[i] == classes[1] {
			positive++
		}
	}
	n := float64(len(records))
	res.AvgTotalDelay /= n
	res.AvgDelayRatio /= n
	res.DelayIndicatorRate = res.DelayIndicatorRate / n * 100
	res.AvgServiceScore /= n
	res.AvgServiceConsistency /= n
	res.AvgServiceEntropy /= n
	res.AvgProbability = res.AvgProbability / n * 100
	res.SatisfactionRate = float64(positive) / n * 100

	if hasTruth {
		acc := scoring.Accuracy(truth, preds) * 100
		res.Accuracy = &acc
		isPos := make([]bool, len(truth))
		for i, tl := range truth {
			isPos[i] = tl == classes[1]
		}
		auc := scoring.RocAuc(isPos, probs) * 100
		res.RocAuc = &auc
	}

	stored, err := s.writeOutputCSV(header, records, feats, preds, probs)
	if err != nil {
		return nil, err
	}
	res.Filename = stored

	upload := models.Upload{
		UserID:           userID,
		Filename:         stored,
		OriginalFilename: originalFilename,
		Processed:        true,
		NumRows:          len(records),
	}
	if err := s.DB.Create(&upload).Error; err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	res.UploadID = upload.ID

	rows := make([]models.Prediction, len(records))
	for i := range records {
		passengerID := ""
		if hasID {
			passengerID = cell(records[i], idIdx)
		}
		rows[i] = models.Prediction{
			UploadID:    upload.ID,
			PassengerID: passengerID,
			Prediction:  preds[i],
			Probability: probs[i],
		}
	}
	if err := s.DB.CreateInBatches(rows, 500).Error; err != nil {
		return nil, fmt.Errorf("save predictions: %w", err)
	}

	res.PreviewColumns, res.PreviewRows = preview(header, records, feats, preds, probs)
	return res, nil
}

// outputColumns are the derived columns appended to the stored CSV.
var outputColumns = []string{
	"total_delay", "delay_ratio", "delay_indicator",
	"service_score", "service_consistency", "service_entropy",
	"age_group", "delay_category",
	"prediction", "probability",
}

func enrichedRow(row []string, f scoring.Features, pred string, prob float64) []string {
	out := make([]string, 0, len(row)+len(outputColumns))
	out = append(out, row...)
	out = append(out,
		formatFloat(f.TotalDelay),
		formatFloat(f.DelayRatio),
		strconv.Itoa(f.DelayIndicator),
		formatFloat(f.ServiceScore),
		formatFloat(f.ServiceConsistency),
		formatFloat(f.ServiceEntropy),
		f.AgeGroup,
		f.DelayCategory,
		pred,
		formatFloat(prob),
	)
	return out
}

func (s *PredictionService) writeOutputCSV(header []string, records [][]string, feats []scoring.Features, preds []string, probs []float64) (string, error) {
	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("upload dir: %w", err)
	}
	stored := strings.ReplaceAll(uuid.New().String(), "-", "") + "_predictions.csv"
	f, err := os.Create(filepath.Join(s.UploadDir, stored))
	if err != nil {
		return "", fmt.Errorf("create output csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append(append([]string{}, header...), outputColumns...)); err != nil {
		return "", err
	}
	for i, row := range records {
		if err := w.Write(enrichedRow(row, feats[i], preds[i], probs[i])); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return stored, nil
}

func preview(header []string, records [][]string, feats []scoring.Features, preds []string, probs []float64) ([]string, [][]string) {
	cols := append(append([]string{}, header...), outputColumns...)
	limit := len(records)
	if limit > PreviewRows {
		limit = PreviewRows
	}
	rows := make([][]string, limit)
	for i := 0; i < limit; i++ {
		rows[i] = enrichedRow(records[i], feats[i], preds[i], probs[i])
	}
	return cols, rows
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// cellFloat parses a numeric cell; blank or malformed values count as 0,
// matching the fillna(0) behavior of the training pipeline.
func cellFloat(row []string, idx int) float64 {
	v := strings.TrimSpace(cell(row, idx))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
