package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"civicsync-issues/middlewares"
	"civicsync-issues/services"
	"civicsync-issues/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IssueController struct {
	issues *services.IssueService
	log    *zap.Logger
}

func NewIssueController(issues *services.IssueService, log *zap.Logger) *IssueController {
	return &IssueController{issues: issues, log: log}
}

// CreateIssue accepts either a JSON body or a multipart form with an optional
// "image" file.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var (
		input  validation.IssueInput
		upload *services.Upload
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&input); err != nil {
			badRequest(c, "Invalid form data")
			return
		}

		coords, err := formCoordinates(c)
		if err != nil {
			badRequest(c, "Invalid coordinates")
			return
		}
		input.Coordinates = coords

		file, err := c.FormFile("image")
		switch {
		case err == nil:
			f, err := file.Open()
			if err != nil {
				badRequest(c, "Could not read uploaded image")
				return
			}
			defer f.Close()
			upload = &services.Upload{Name: file.Filename, Body: f}
		case errors.Is(err, http.ErrMissingFile):
		default:
			badRequest(c, "Could not read uploaded image")
			return
		}
	} else if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	issue, err := ic.issues.Create(c.Request.Context(), middlewares.CurrentIdentity(c), input, upload)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Issue created successfully", "data": issue})
}

// formCoordinates reads coordinates from a multipart form, either as a JSON
// "coordinates" field or as separate "lat" and "lng" fields.
func formCoordinates(c *gin.Context) (*validation.CoordinatesInput, error) {
	if raw := strings.TrimSpace(c.PostForm("coordinates")); raw != "" {
		var coords validation.CoordinatesInput
		if err := json.Unmarshal([]byte(raw), &coords); err != nil {
			return nil, fmt.Errorf("decoding coordinates: %w", err)
		}
		return &coords, nil
	}

	lat, lng := strings.TrimSpace(c.PostForm("lat")), strings.TrimSpace(c.PostForm("lng"))
	if lat == "" && lng == "" {
		return nil, nil
	}

	var coords validation.CoordinatesInput
	for _, f := range []struct {
		raw string
		dst **float64
	}{{lat, &coords.Lat}, {lng, &coords.Lng}} {
		if f.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return nil, err
		}
		*f.dst = &v
	}
	return &coords, nil
}

// GetAllIssues runs search, filters and sort order from the query string.
func (ic *IssueController) GetAllIssues(c *gin.Context) {
	sortKey, err := services.ParseSortKey(c.Query("sort"))
	if err != nil {
		badRequest(c, "Invalid sort option")
		return
	}

	query := services.IssueQuery{
		Search:   c.Query("search"),
		Category: strings.TrimSpace(c.Query("category")),
		Priority: strings.ToLower(strings.TrimSpace(c.Query("priority"))),
		Sort:     sortKey,
	}

	issues, err := ic.issues.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(issues), "data": issues})
}

// GetMapIssues returns issues that can be placed on the community map.
func (ic *IssueController) GetMapIssues(c *gin.Context) {
	issues, err := ic.issues.Map(c.Request.Context())
	if err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(issues), "data": issues})
}

func (ic *IssueController) GetIssue(c *gin.Context) {
	issue, err := ic.issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": issue})
}

func (ic *IssueController) UpdateIssue(c *gin.Context) {
	var input validation.PatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	issue, err := ic.issues.Update(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id"), input)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Issue updated successfully", "data": issue})
}

func (ic *IssueController) DeleteIssue(c *gin.Context) {
	if err := ic.issues.Delete(c.Request.Context(), middlewares.CurrentIdentity(c), c.Param("id")); err != nil {
		respondError(c, ic.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Issue deleted successfully"})
}
