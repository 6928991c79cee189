package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodvision-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingUserID  = errors.New("user ID is required")
	ErrInvalidImage   = errors.New("invalid image file")
	ErrNoDietPlan     = errors.New("no diet plan found for user")
	ErrRecordNotFound = errors.New("analysis record not found")
)

// MediaStore is the durable image store. Save writes once and returns the
// public URL; the stored copy is never read back or deleted by this core.
type MediaStore interface {
	Save(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// AnalysisService runs the whole analysis pipeline for one request:
// validate, store the image, resolve an inference result through the
// confidence gate, score it against the user's plan, and persist the
// audit record with its ingredient rows.
type AnalysisService struct {
	db     *gorm.DB
	gate   *ConfidenceGate
	media  MediaStore
	loc    *time.Location
	logger *zap.Logger
}

func NewAnalysisService(db *gorm.DB, gate *ConfidenceGate, media MediaStore, loc *time.Location, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{db: db, gate: gate, media: media, loc: loc, logger: logger}
}

// AnalyzeInput is one uploaded meal photo. TempPath is the transient copy
// of the upload; the service owns it for the duration of the call and
// removes it on every exit path.
type AnalyzeInput struct {
	UserID      string
	MealType    string
	Filename    string
	ContentType string
	TempPath    string
}

type AnalysisResponse struct {
	ID         uint               `json:"id"`
	UserID     string             `json:"userId"`
	ImagePath  string             `json:"imagePath"`
	FoodName   string             `json:"foodName"`
	Confidence float64            `json:"confidence"`
	Calories   float64            `json:"calories"`
	Protein    float64            `json:"protein"`
	Fat        float64            `json:"fat"`
	Carbs      float64            `json:"carbs"`
	MealType   string             `json:"mealType"`
	Advice     string             `json:"advice"`
	CreatedAt  time.Time          `json:"createdAt"`
	Details    []IngredientDetail `json:"details"`
}

// AnalysisSummary is one history row, without ingredient detail.
type AnalysisSummary struct {
	ID         uint      `json:"id"`
	ImagePath  string    `json:"imagePath"`
	FoodName   string    `json:"foodName"`
	Confidence float64   `json:"confidence"`
	Calories   float64   `json:"calories"`
	Protein    float64   `json:"protein"`
	Fat        float64   `json:"fat"`
	Carbs      float64   `json:"carbs"`
	MealType   string    `json:"mealType"`
	CreatedAt  time.Time `json:"createdAt"`
	Advice     string    `json:"advice"`
}

func (s *AnalysisService) Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisResponse, error) {
	defer s.removeTemp(in.TempPath)

	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrMissingUserID
	}
	if in.TempPath == "" || !strings.HasPrefix(in.ContentType, "image/") {
		return nil, ErrInvalidImage
	}
	data, err := os.ReadFile(in.TempPath)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}

	// Durable copy first; its URL goes into the audit record.
	objectName := uuid.New().String() + strings.ToLower(filepath.Ext(in.Filename))
	imageURL, err := s.media.Save(ctx, objectName, data, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	analysis, provider, err := s.gate.Resolve(ctx, data, in.Filename, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("food analysis failed: %w", err)
	}
	s.logger.Info("analysis resolved",
		zap.String("provider", string(provider)),
		zap.String("food", analysis.FoodName))

	var plan models.HealthPlan
	err = s.db.WithContext(ctx).
		Where("user_id = ?", in.UserID).
		Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDietPlan
		}
		return nil, fmt.Errorf("failed to load diet plan: %w", err)
	}

	mealType := strings.ToLower(in.MealType)
	if mealType == "" {
		mealType = "lunch"
	}

	advice := GenerateAdvice(analysis.FoodName, analysis.Nutrition.Calories, plan)
	score := EvaluateSuitability(analysis.Nutrition.Calories, plan)
	suggestions := GenerateSuggestions(score)

	record := models.AnalysisRecord{
		UserID:      in.UserID,
		ImagePath:   imageURL,
		FoodName:    analysis.FoodName,
		Confidence:  analysis.Confidence,
		Calories:    analysis.Nutrition.Calories,
		Protein:     analysis.Nutrition.Protein,
		Fat:         analysis.Nutrition.Fat,
		Carbs:       analysis.Nutrition.Carbs,
		MealType:    mealType,
		Reason:      in.MealType,
		Suitability: score,
		Suggestions: suggestions,
		Advice:      advice,
		CreatedAt:   time.Now().In(s.loc),
	}

	// Summary row and ingredient rows land together or not at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if len(analysis.Ingredients) == 0 {
			return nil
		}
		rows := make([]models.IngredientRecord, 0, len(analysis.Ingredients))
		for _, ing := range analysis.Ingredients {
			rows = append(rows, models.IngredientRecord{
				AnalysisRecordID: record.ID,
				Label:            ing.Label,
				Weight:           ing.Weight,
				Calories:         ing.Calories,
				Protein:          ing.Protein,
				Fat:              ing.Fat,
				Carbs:            ing.Carbs,
				Confidence:       ing.Confidence,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	// details is always an array on the wire, even when the fallback
	// provider resolved the dish
	details := analysis.Ingredients
	if details == nil {
		details = []IngredientDetail{}
	}

	return &AnalysisResponse{
		ID:         record.ID,
		UserID:     in.UserID,
		ImagePath:  imageURL,
		FoodName:   analysis.FoodName,
		Confidence: analysis.Confidence,
		Calories:   analysis.Nutrition.Calories,
		Protein:    analysis.Nutrition.Protein,
		Fat:        analysis.Nutrition.Fat,
		Carbs:      analysis.Nutrition.Carbs,
		MealType:   mealType,
		Advice:     advice,
		CreatedAt:  record.CreatedAt,
		Details:    details,
	}, nil
}

// History returns the user's analysis summaries, newest first.
func (s *AnalysisService) History(ctx context.Context, userID string) ([]AnalysisSummary, error) {
	var records []models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	out := make([]AnalysisSummary, 0, len(records))
	for _, r := range records {
		out = append(out, AnalysisSummary{
			ID:         r.ID,
			ImagePath:  r.ImagePath,
			FoodName:   r.FoodName,
			Confidence: r.Confidence,
			Calories:   r.Calories,
			Protein:    r.Protein,
			Fat:        r.Fat,
			Carbs:      r.Carbs,
			MealType:   r.MealType,
			CreatedAt:  r.CreatedAt,
			Advice:     r.Advice,
		})
	}
	return out, nil
}

// Delete removes one analysis record and its ingredient rows. Ingredient
// rows go first so a record never outlives the delete with orphans.
func (s *AnalysisService) Delete(ctx context.Context, id int) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := s.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load analysis record: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("analysis_record_id = ?", record.ID).
			Delete(&models.IngredientRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete analysis record: %w", err)
	}
	return &record, nil
}

// removeTemp deletes the transient upload copy. Deletion failures are
// logged and swallowed; they never surface to the caller.
func (s *AnalysisService) removeTemp(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove temp upload", zap.String("path", path), zap.Error(err))
	}
}
