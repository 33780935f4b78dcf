package handlers

import (
	"net/http"

	"github.com/akrammlh02/elearning-backend/internal/database"
	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

type CartLine struct {
	CourseID  string  `json:"courseId"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Price     float64 `json:"price"`
}

func GetCart(c *gin.Context) {
	lang := requestLang(c)

	var items []models.CartItem
	if err := database.DB.Preload("Course").
		Where("client_id = ?", c.GetString("userId")).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		respondError(c, err)
		return
	}

	lines := make([]CartLine, 0, len(items))
	total := 0.0
	for _, item := range items {
		lines = append(lines, CartLine{
			CourseID:  item.CourseID,
			Title:     item.Course.Title(lang),
			Thumbnail: item.Course.Thumbnail,
			Price:     item.Course.Price,
		})
		total += item.Course.Price
	}

	c.JSON(http.StatusOK, gin.H{"items": lines, "total": total})
}

type AddToCartInput struct {
	CourseID string `json:"courseId" binding:"required"`
}

func AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.GetString("userId")

	var course models.Course
	if err := database.DB.Select("id", "is_published").First(&course, "id = ?", input.CourseID).Error; err != nil || !course.IsPublished {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	var paid int64
	database.DB.Model(&models.Purchase{}).
		Where("client_id = ? AND course_id = ? AND paid = ?", userID, input.CourseID, true).
		Count(&paid)
	if paid > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You already own this course"})
		return
	}

	res := database.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CartItem{ClientID: userID, CourseID: input.CourseID})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Course is already in your cart"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Added to cart"})
}

func RemoveFromCart(c *gin.Context) {
	res := database.DB.Where("client_id = ? AND course_id = ?", c.GetString("userId"), c.Param("courseId")).
		Delete(&models.CartItem{})
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course is not in your cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
}

func ClearCart(c *gin.Context) {
	if err := database.DB.Where("client_id = ?", c.GetString("userId")).Delete(&models.CartItem{}).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
