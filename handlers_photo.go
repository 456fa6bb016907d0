package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"duet/models"
	"duet/pkg/ingest"
)

// uploadPhotoHandler validates the request and hands the file to the
// ingestion pipeline. Validation failures are rejected here with no side
// effects; everything past this point is the pipeline's contract. Pipeline
// failures surface as one opaque ingestion error, the internal distinction
// (format vs storage vs persistence) is only logged.
func uploadPhotoHandler(c *gin.Context) {
	user, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > appCfg.Media.MaxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	ext := ingest.ExtensionOf(file.Filename)
	if !ingest.AllowedExtension(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type (jpg, jpeg, png, gif, heic)"})
		return
	}

	up := ingest.Upload{
		OriginalName: file.Filename,
		CoupleID:     cpl.ID,
		UploaderID:   user.ID,
		TypeTag:      c.PostForm("type"),
	}
	if v := c.PostForm("memory_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory_id"})
			return
		}
		var m models.Memory
		if err := db.Where("couple_id = ?", cpl.ID).First(&m, "id = ?", uint(parsed)).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "memory not found"})
			return
		}
		up.MemoryID = &m.ID
	}
	if v := c.PostForm("taken_at"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			up.TakenAt = &t
		}
	}

	// stage the upload in a temp file; the pipeline owns it from here on
	tempPath := filepath.Join(os.TempDir(), "duet-upload-"+uuid.NewString()+"."+ext)
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	up.TempPath = tempPath

	asset, err := pipe.Ingest(c.Request.Context(), up)
	if err != nil {
		zlog.Error("photo ingestion failed",
			zap.String("file", file.Filename),
			zap.Uint("couple_id", cpl.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not process image"})
		return
	}
	c.JSON(http.StatusOK, photoResponse(asset))
}

// photoResponse shapes an asset row for clients; filesystem paths stay
// server-side, clients fetch bytes through /photos/:id/file.
func photoResponse(a *models.ImageAsset) gin.H {
	return gin.H{
		"id":            a.ID,
		"couple_id":     a.CoupleID,
		"uploader_id":   a.UploaderID,
		"memory_id":     a.MemoryID,
		"taken_at":      a.TakenAt,
		"latitude":      a.Latitude,
		"longitude":     a.Longitude,
		"location_name": a.LocationName,
		"description":   a.Description,
		"type":          a.Type,
		"created_at":    a.CreatedAt,
	}
}

func listPhotosHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	q := db.Model(&models.ImageAsset{}).Where("couple_id = ?", cpl.ID)
	if v := c.Query("memory_id"); v != "" {
		q = q.Where("memory_id = ?", v)
	}
	if v := c.Query("type"); v != "" {
		q = q.Where("type = ?", v)
	}
	var assets []models.ImageAsset
	if err := q.Order("taken_at desc").Limit(200).Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(assets))
	for i := range assets {
		out = append(out, photoResponse(&assets[i]))
	}
	c.JSON(http.StatusOK, out)
}

func findCouplePhoto(c *gin.Context, coupleID uint) (*models.ImageAsset, bool) {
	var a models.ImageAsset
	if err := db.Where("couple_id = ?", coupleID).First(&a, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return nil, false
	}
	return &a, true
}

func getPhotoHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	a, ok := findCouplePhoto(c, cpl.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, photoResponse(a))
}

// updatePhotoHandler edits metadata fields only; the derived paths are
// immutable after creation. Last write wins on concurrent edits.
func updatePhotoHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	a, ok := findCouplePhoto(c, cpl.ID)
	if !ok {
		return
	}
	var req struct {
		Description  *string  `json:"description"`
		LocationName *string  `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		Type         *string  `json:"type"`
		MemoryID     *uint    `json:"memory_id"`
		ClearMemory  bool     `json:"clear_memory"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// coordinates are a pair; a lone half would be indistinguishable from a
	// real geotag
	if (req.Latitude != nil) != (req.Longitude != nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be provided together"})
		return
	}
	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LocationName != nil {
		updates["location_name"] = *req.LocationName
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.Type != nil && models.ValidImageType(*req.Type) {
		updates["type"] = *req.Type
	}
	if req.ClearMemory {
		updates["memory_id"] = nil
	} else if req.MemoryID != nil {
		var m models.Memory
		if err := db.Where("couple_id = ?", cpl.ID).First(&m, "id = ?", *req.MemoryID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "memory not found"})
			return
		}
		updates["memory_id"] = m.ID
	}
	if len(updates) > 0 {
		if err := db.Model(&models.ImageAsset{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
	}
	var fresh models.ImageAsset
	db.First(&fresh, "id = ?", a.ID)
	c.JSON(http.StatusOK, photoResponse(&fresh))
}

func deletePhotoHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	a, ok := findCouplePhoto(c, cpl.ID)
	if !ok {
		return
	}
	if err := pipe.Delete(c.Request.Context(), a); err != nil {
		zlog.Error("photo deletion failed", zap.String("asset_id", a.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "photo deleted"})
}

// servePhotoFileHandler streams one of the stored files. Clients never see
// filesystem paths; the size parameter picks the variant.
func servePhotoFileHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	a, ok := findCouplePhoto(c, cpl.ID)
	if !ok {
		return
	}
	var path string
	switch c.DefaultQuery("size", "normalized") {
	case "original":
		path = a.OriginalPath
	case "normalized":
		path = a.NormalizedPath
	case "large":
		path = a.LargePath
	case "small":
		path = a.SmallPath
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "size must be original, normalized, large or small"})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(path)
}
