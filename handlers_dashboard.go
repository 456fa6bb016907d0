package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"duet/models"
)

// monthExpr returns the SQL expression that buckets created_at by month for
// the active dialect. Postgres and sqlite spell this differently.
func monthExpr() string {
	if db.Dialector.Name() == "postgres" {
		return "to_char(created_at, 'YYYY-MM')"
	}
	return "strftime('%Y-%m', created_at)"
}

// dashboardHandler aggregates the couple's activity: entity counts, photo
// volume per month, type distribution and the latest uploads.
func dashboardHandler(c *gin.Context) {
	_, cpl, ok := getCoupleFromContext(c)
	if !ok {
		return
	}

	var photoCount, memoryCount, ideasOpen, ideasDone, geotagged int64
	db.Model(&models.ImageAsset{}).Where("couple_id = ?", cpl.ID).Count(&photoCount)
	db.Model(&models.Memory{}).Where("couple_id = ?", cpl.ID).Count(&memoryCount)
	db.Model(&models.Idea{}).Where("couple_id = ? AND done = ?", cpl.ID, false).Count(&ideasOpen)
	db.Model(&models.Idea{}).Where("couple_id = ? AND done = ?", cpl.ID, true).Count(&ideasDone)
	db.Model(&models.ImageAsset{}).
		Where("couple_id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", cpl.ID).
		Distinct("latitude", "longitude").
		Count(&geotagged)

	perMonth := map[string]int64{}
	rows, err := db.Model(&models.ImageAsset{}).
		Select(monthExpr()+" as month, count(*) as total").
		Where("couple_id = ?", cpl.ID).
		Group("month").
		Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var month string
			var total int64
			if err := rows.Scan(&month, &total); err == nil {
				perMonth[month] = total
			}
		}
	}

	byType := map[string]int64{}
	typeRows, err := db.Model(&models.ImageAsset{}).
		Select("type, count(*) as total").
		Where("couple_id = ?", cpl.ID).
		Group("type").
		Rows()
	if err == nil {
		defer typeRows.Close()
		for typeRows.Next() {
			var t string
			var total int64
			if err := typeRows.Scan(&t, &total); err == nil {
				byType[t] = total
			}
		}
	}

	var recent []models.ImageAsset
	db.Where("couple_id = ?", cpl.ID).Order("created_at desc").Limit(8).Find(&recent)
	recentOut := make([]gin.H, 0, len(recent))
	for i := range recent {
		recentOut = append(recentOut, photoResponse(&recent[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"photos":           photoCount,
		"memories":         memoryCount,
		"ideas_open":       ideasOpen,
		"ideas_done":       ideasDone,
		"geotagged_places": geotagged,
		"photos_per_month": perMonth,
		"photos_by_type":   byType,
		"recent_photos":    recentOut,
	})
}
