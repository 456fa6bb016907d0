package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"duet/models"
)

func createIdeaHandler(c *gin.Context) {
	user, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	idea := models.Idea{
		CoupleID:    cpl.ID,
		CreatedByID: user.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := db.Create(&idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": idea.ID})
}

func listIdeasHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	q := db.Model(&models.Idea{}).Where("couple_id = ?", cpl.ID)
	if done := c.Query("done"); done == "true" {
		q = q.Where("done = ?", true)
	} else if done == "false" {
		q = q.Where("done = ?", false)
	}
	if cat := c.Query("category"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	var items []models.Idea
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func findCoupleIdea(c *gin.Context, coupleID uint) (*models.Idea, bool) {
	var idea models.Idea
	if err := db.Where("couple_id = ?", coupleID).First(&idea, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "idea not found"})
		return nil, false
	}
	return &idea, true
}

func updateIdeaHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	idea, ok := findCoupleIdea(c, cpl.ID)
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title != nil {
		idea.Title = *req.Title
	}
	if req.Description != nil {
		idea.Description = *req.Description
	}
	if req.Category != nil {
		idea.Category = *req.Category
	}
	if err := db.Save(idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, idea)
}

// completeIdeaHandler marks an idea done; with spawn_memory=true it also
// creates a moment memory from the idea and links the two.
func completeIdeaHandler(c *gin.Context) {
	user, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	idea, ok := findCoupleIdea(c, cpl.ID)
	if !ok {
		return
	}
	if idea.Done {
		c.JSON(http.StatusConflict, gin.H{"error": "idea already completed"})
		return
	}
	var req struct {
		SpawnMemory bool `json:"spawn_memory"`
	}
	// body is optional
	_ = c.ShouldBindJSON(&req)

	now := time.Now()
	idea.Done = true
	idea.DoneAt = &now

	if req.SpawnMemory {
		m := models.Memory{
			CoupleID:    cpl.ID,
			CreatedByID: user.ID,
			Title:       idea.Title,
			Description: idea.Description,
			Kind:        models.MemoryKindMoment,
			StartDate:   now,
		}
		if err := db.Create(&m).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create memory from idea"})
			return
		}
		idea.MemoryID = &m.ID
	}
	if err := db.Save(idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, idea)
}

func deleteIdeaHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	idea, ok := findCoupleIdea(c, cpl.ID)
	if !ok {
		return
	}
	if err := db.Delete(idea).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "idea deleted"})
}
