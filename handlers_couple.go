package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"duet/models"
)

// newInviteCode returns a short random code used to pair the second partner.
func newInviteCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// createCoupleHandler creates a couple owned by the caller and returns the
// invite code the partner uses to join.
func createCoupleHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if user.CoupleID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already in a couple"})
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Anniversary string `json:"anniversary"` // optional ISO8601
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code, err := newInviteCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate invite code"})
		return
	}
	cpl := models.Couple{Name: req.Name, InviteCode: code}
	if req.Anniversary != "" {
		if t, err := time.Parse(time.RFC3339, req.Anniversary); err == nil {
			cpl.Anniversary = &t
		}
	}
	if err := db.Create(&cpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create couple"})
		return
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("couple_id", cpl.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to link user to couple"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cpl.ID, "invite_code": cpl.InviteCode})
}

// joinCoupleHandler pairs the caller into an existing couple by invite code.
// A couple holds at most two users.
func joinCoupleHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if user.CoupleID != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already in a couple"})
		return
	}
	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var cpl models.Couple
	if err := db.Where("invite_code = ?", strings.ToUpper(strings.TrimSpace(req.InviteCode))).First(&cpl).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite code not found"})
		return
	}
	var members int64
	db.Model(&models.User{}).Where("couple_id = ?", cpl.ID).Count(&members)
	if members >= 2 {
		c.JSON(http.StatusConflict, gin.H{"error": "couple is already complete"})
		return
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("couple_id", cpl.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join couple"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cpl.ID, "name": cpl.Name})
}

func getCoupleHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}
	var members []models.User
	db.Where("couple_id = ?", cpl.ID).Find(&members)
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Username)
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          cpl.ID,
		"name":        cpl.Name,
		"invite_code": cpl.InviteCode,
		"anniversary": cpl.Anniversary,
		"members":     names,
	})
}
