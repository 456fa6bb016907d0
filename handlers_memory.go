package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"duet/models"
)

// createMemoryHandler creates a memory (trip/event/moment) for the couple.
func createMemoryHandler(c *gin.Context) {
	user, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Title        string   `json:"title" binding:"required"`
		Description  string   `json:"description"`
		Kind         string   `json:"kind"`
		StartDate    string   `json:"start_date"` // optional ISO8601
		EndDate      string   `json:"end_date"`
		LocationName string   `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind := req.Kind
	if !models.ValidMemoryKind(kind) {
		kind = models.MemoryKindMoment
	}
	m := models.Memory{
		CoupleID:     cpl.ID,
		CreatedByID:  user.ID,
		Title:        req.Title,
		Description:  req.Description,
		Kind:         kind,
		StartDate:    time.Now(),
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if req.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, req.StartDate); err == nil {
			m.StartDate = t
		}
	}
	if req.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, req.EndDate); err == nil {
			m.EndDate = &t
		}
	}
	if err := db.Create(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": m.ID})
}

func listMemoriesHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	q := db.Model(&models.Memory{}).Where("couple_id = ?", cpl.ID)
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var items []models.Memory
	if err := q.Order("start_date desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// findCoupleMemory loads a memory by path id scoped to the couple.
func findCoupleMemory(c *gin.Context, coupleID uint) (*models.Memory, bool) {
	var m models.Memory
	if err := db.Where("couple_id = ?", coupleID).First(&m, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "memory not found"})
		return nil, false
	}
	return &m, true
}

func getMemoryHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	m, ok := findCoupleMemory(c, cpl.ID)
	if !ok {
		return
	}
	var photos []models.ImageAsset
	db.Where("memory_id = ?", m.ID).Order("taken_at asc").Find(&photos)
	c.JSON(http.StatusOK, gin.H{"memory": m, "photos": photos})
}

func updateMemoryHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	m, ok := findCoupleMemory(c, cpl.ID)
	if !ok {
		return
	}
	var req struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Kind         *string  `json:"kind"`
		StartDate    *string  `json:"start_date"`
		EndDate      *string  `json:"end_date"`
		LocationName *string  `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Kind != nil && models.ValidMemoryKind(*req.Kind) {
		m.Kind = *req.Kind
	}
	if req.StartDate != nil {
		if t, err := time.Parse(time.RFC3339, *req.StartDate); err == nil {
			m.StartDate = t
		}
	}
	if req.EndDate != nil {
		if t, err := time.Parse(time.RFC3339, *req.EndDate); err == nil {
			m.EndDate = &t
		}
	}
	if req.LocationName != nil {
		m.LocationName = *req.LocationName
	}
	if req.Latitude != nil {
		m.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		m.Longitude = req.Longitude
	}
	if err := db.Save(m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// deleteMemoryHandler removes the memory; its photos survive with the
// association cleared.
func deleteMemoryHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	m, ok := findCoupleMemory(c, cpl.ID)
	if !ok {
		return
	}
	if err := db.Model(&models.ImageAsset{}).Where("memory_id = ?", m.ID).Update("memory_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to detach photos"})
		return
	}
	if err := db.Delete(m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "memory deleted"})
}
