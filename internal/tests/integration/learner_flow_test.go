package integration

import (
	"net/http"
	"testing"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCourseFullFlow walks a course from creation to certificate: the admin
// builds it, a learner buys it by bank transfer, the admin approves the
// transfer and the learner completes every lesson.
func TestCourseFullFlow(t *testing.T) {
	r, db := setupApp(t)
	adminToken := createTestUser(t, db, "admin", models.RoleAdmin)

	code, body := call(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Amal", "email": "amal@example.com", "password": "Passw0rd", "preferredLanguage": "ar",
	})
	require.Equal(t, http.StatusCreated, code, body)
	learnerToken := body["token"].(string)

	// admin builds a paid course with one chapter of two lessons
	code, body = call(t, r, http.MethodPost, "/api/admin/courses", adminToken, map[string]interface{}{
		"titleEn": "Go in Practice", "titleAr": "جو عمليا", "price": 30, "isPublished": true,
	})
	require.Equal(t, http.StatusCreated, code, body)
	courseID := field(body, "course", "id").(string)

	code, body = call(t, r, http.MethodPost, "/api/admin/courses/"+courseID+"/chapters", adminToken, map[string]string{"titleEn": "Concurrency"})
	require.Equal(t, http.StatusCreated, code, body)
	chapterID := field(body, "chapter", "id").(string)

	var lessonIDs []string
	for _, title := range []string{"Goroutines", "Channels"} {
		code, body = call(t, r, http.MethodPost, "/api/admin/lessons", adminToken, map[string]interface{}{
			"chapterId": chapterID, "type": "article", "titleEn": title, "contentEn": title + " explained",
		})
		require.Equal(t, http.StatusCreated, code, body)
		lessonIDs = append(lessonIDs, field(body, "lesson", "id").(string))
	}

	// the learner sees the course but not the paid content
	code, body = call(t, r, http.MethodGet, "/api/courses", learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["courses"], 1)

	lessonURL := "/api/courses/" + courseID + "/lessons/" + lessonIDs[0]
	code, body = call(t, r, http.MethodGet, lessonURL, learnerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "purchase-required", body["reason"])

	// buy it by bank transfer
	code, _ = call(t, r, http.MethodPost, "/api/cart", learnerToken, map[string]string{"courseId": courseID})
	require.Equal(t, http.StatusCreated, code)

	code, body = call(t, r, http.MethodPost, "/api/payments/checkout", learnerToken, map[string]string{"method": "bank_transfer"})
	require.Equal(t, http.StatusCreated, code, body)
	ref := body["checkoutRef"].(string)
	assert.Equal(t, float64(30), body["total"])

	// still locked until the transfer is approved
	code, _ = call(t, r, http.MethodGet, lessonURL, learnerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPost, "/api/admin/payments/"+ref+"/approve", learnerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = call(t, r, http.MethodPost, "/api/admin/payments/"+ref+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)

	code, body = call(t, r, http.MethodGet, "/api/cart", learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["items"])

	code, body = call(t, r, http.MethodGet, lessonURL, learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "purchased", field(body, "access", "reason"))

	// completing the last lesson issues the certificate
	code, body = call(t, r, http.MethodPost, lessonURL+"/complete", learnerToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["certificateIssued"])

	code, body = call(t, r, http.MethodPost, "/api/courses/"+courseID+"/lessons/"+lessonIDs[1]+"/complete", learnerToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["certificateIssued"])
	number := field(body, "certificate", "certificateNumber").(string)
	require.NotEmpty(t, number)

	code, body = call(t, r, http.MethodGet, "/api/courses/"+courseID+"/progress", learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(100), body["percentage"])

	code, body = call(t, r, http.MethodGet, "/api/certificates/verify/"+number, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "Amal", body["holder"])

	// completion is idempotent and never issues a second certificate
	code, body = call(t, r, http.MethodPost, lessonURL+"/complete", learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["certificateIssued"])

	var certs int64
	db.Model(&models.Certificate{}).Count(&certs)
	assert.Equal(t, int64(1), certs)
}

// TestMembershipPathFlow covers the membership side: a free learner is locked
// out of a pro path until an approved membership checkout, then progresses
// through graded submissions.
func TestMembershipPathFlow(t *testing.T) {
	r, db := setupApp(t)
	adminToken := createTestUser(t, db, "admin", models.RoleAdmin)
	learnerToken := createTestUser(t, db, "amal", models.RoleClient)

	code, body := call(t, r, http.MethodPost, "/api/admin/paths", adminToken, map[string]interface{}{
		"titleEn": "Python Drills", "requiredTier": "pro", "isPublished": true,
	})
	require.Equal(t, http.StatusCreated, code, body)
	pathID := field(body, "path", "id").(string)
	assert.Equal(t, "python-drills", field(body, "path", "slug"))

	var lessonIDs []string
	for _, expected := range []string{"hello", "world"} {
		code, body = call(t, r, http.MethodPost, "/api/admin/lessons", adminToken, map[string]interface{}{
			"type": "interactive", "titleEn": "Print " + expected, "programmingLanguage": "python",
			"challengeEn": "Print " + expected, "referenceSolution": "print('" + expected + "')",
			"expectedOutput": expected, "validationType": "output_match",
		})
		require.Equal(t, http.StatusCreated, code, body)
		lessonID := field(body, "lesson", "id").(string)
		lessonIDs = append(lessonIDs, lessonID)

		code, body = call(t, r, http.MethodPost, "/api/admin/paths/"+pathID+"/lessons", adminToken, map[string]string{"lessonId": lessonID})
		require.Equal(t, http.StatusCreated, code, body)
	}

	submitURL := func(i int) string { return "/api/paths/" + pathID + "/lessons/" + lessonIDs[i] + "/submit" }

	code, body = call(t, r, http.MethodPost, submitURL(0), learnerToken, map[string]string{"code": "print('hello')"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "membership-required", body["reason"])

	code, body = call(t, r, http.MethodPost, "/api/payments/membership", learnerToken, map[string]string{"tier": "pro", "method": "whatsapp"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotEmpty(t, body["whatsappUrl"])
	ref := body["checkoutRef"].(string)

	code, _ = call(t, r, http.MethodPost, "/api/admin/payments/"+ref+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, r, http.MethodPost, submitURL(1), learnerToken, map[string]string{"code": "print('world')"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "progression-required", body["reason"])

	code, body = call(t, r, http.MethodPost, submitURL(0), learnerToken, map[string]string{"code": "print('bye')"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["isCorrect"])

	code, body = call(t, r, http.MethodPost, submitURL(0), learnerToken, map[string]string{"code": "print('hello')"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isCorrect"])
	assert.Equal(t, lessonIDs[1], body["nextLessonId"])
	assert.Equal(t, false, body["nextLessonMembershipLocked"])

	code, body = call(t, r, http.MethodGet, "/api/paths/"+pathID, learnerToken, nil)
	require.Equal(t, http.StatusOK, code)
	lessons := body["lessons"].([]interface{})
	require.Len(t, lessons, 2)
	assert.Equal(t, true, field(lessons[0].(map[string]interface{}), "completed"))
	assert.Equal(t, true, field(lessons[1].(map[string]interface{}), "access", "unlocked"))

	// switching interactive lessons off closes submissions only
	require.NoError(t, db.Create(&models.SystemSettings{Key: models.SettingInteractiveLessons, Value: "false"}).Error)
	code, _ = call(t, r, http.MethodPost, submitURL(1), learnerToken, map[string]string{"code": "print('world')"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = call(t, r, http.MethodGet, "/api/paths/"+pathID+"/lessons/"+lessonIDs[1], learnerToken, nil)
	assert.Equal(t, http.StatusOK, code)
}
