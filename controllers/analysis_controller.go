package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"foodvision-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AnalysisController struct {
	svc    *services.AnalysisService
	logger *zap.Logger
}

func NewAnalysisController(svc *services.AnalysisService, logger *zap.Logger) *AnalysisController {
	return &AnalysisController{svc: svc, logger: logger}
}

// POST /api/analysis/analyze
// multipart form: image (file, required), userId (required), mealType (optional)
func (ctl *AnalysisController) Analyze(c *gin.Context) {
	userID := c.PostForm("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil || file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image file."})
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image file."})
		return
	}

	// Transient copy; the service removes it on every exit path.
	tempPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		_ = os.Remove(tempPath) // drop any partial write
		ctl.logger.Error("failed to save upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	resp, err := ctl.svc.Analyze(c.Request.Context(), services.AnalyzeInput{
		UserID:      userID,
		MealType:    c.PostForm("mealType"),
		Filename:    file.Filename,
		ContentType: contentType,
		TempPath:    tempPath,
	})
	if err != nil {
		ctl.writeAnalyzeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ctl *AnalysisController) writeAnalyzeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingUserID),
		errors.Is(err, services.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoDietPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Không tìm thấy phác đồ của người dùng."})
	default:
		ctl.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"type":   "https://tools.ietf.org/html/rfc7231#section-6.6.1",
			"title":  "An error occurred while processing your request.",
			"status": http.StatusInternalServerError,
			"detail": err.Error(),
		})
	}
}

// GET /api/analysis/history/user/:userId
func (ctl *AnalysisController) History(c *gin.Context) {
	history, err := ctl.svc.History(c.Request.Context(), c.Param("userId"))
	if err != nil {
		ctl.logger.Error("failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Có lỗi xảy ra khi lấy lịch sử",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, history)
}

// DELETE /api/analysis/prediction/:id
func (ctl *AnalysisController) Delete(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "ID không hợp lệ",
			"errors":  []string{"ID phải là số nguyên, nhưng nhận được: " + idStr},
		})
		return
	}

	record, err := ctl.svc.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Không tìm thấy bản ghi phân tích",
				"errors":  []string{"Bản ghi với ID " + idStr + " không tồn tại"},
			})
			return
		}
		ctl.logger.Error("failed to delete analysis", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Có lỗi xảy ra khi xóa",
			"errors":  []string{err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Xóa bản ghi phân tích thành công",
		"data": gin.H{
			"id":        record.ID,
			"foodName":  record.FoodName,
			"deletedAt": time.Now().UTC(),
		},
	})
}
