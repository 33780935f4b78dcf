package seeds

import (
	"fmt"

	"github.com/akrammlh02/elearning-backend/internal/models"
	"github.com/akrammlh02/elearning-backend/pkg/logger"
	"gorm.io/gorm"
)

type seedLesson struct {
	titleEn, titleAr string
	kind             models.LessonType
	free             bool
	contentEn        string
	contentAr        string
}

type seedChapter struct {
	titleEn, titleAr string
	free             bool
	lessons          []seedLesson
}

var introCourse = struct {
	id                     string
	titleEn, titleAr       string
	descriptionEn, descrAr string
	price                  float64
	chapters               []seedChapter
}{
	id:            "seed-course-python-basics",
	titleEn:       "Python Basics",
	titleAr:       "أساسيات بايثون",
	descriptionEn: "Variables, control flow and functions from scratch.",
	descrAr:       "المتغيرات والتحكم في التدفق والدوال من الصفر.",
	price:         19,
	chapters: []seedChapter{
		{"Getting started", "البداية", true, []seedLesson{
			{"Why Python", "لماذا بايثون", models.LessonVideo, true, "A short tour of the language.", "جولة قصيرة في اللغة."},
			{"Installing Python", "تثبيت بايثون", models.LessonArticle, false, "Install Python 3 and check the version.", "ثبت بايثون 3 وتحقق من الإصدار."},
		}},
		{"Control flow", "التحكم في التدفق", false, []seedLesson{
			{"if and else", "الشرط if و else", models.LessonArticle, false, "Branching on conditions.", "التفرع حسب الشروط."},
			{"Loops", "الحلقات", models.LessonVideo, false, "for and while loops.", "حلقات for و while."},
		}},
	},
}

type seedChallenge struct {
	titleEn, titleAr         string
	challengeEn, challengeAr string
	starter, solution        string
	expected                 string
	validation               models.ValidationType
	tier                     models.MembershipTier
}

var pythonPath = []seedChallenge{
	{
		"Hello, world", "مرحبا بالعالم",
		"Print Hello, World!", "اطبع Hello, World!",
		"# write your code here\n", `print("Hello, World!")`,
		"Hello, World!", models.ValidationOutputMatch, models.TierFree,
	},
	{
		"Sum a list", "مجموع قائمة",
		"Print the sum of nums using a for loop.", "اطبع مجموع nums باستخدام حلقة for.",
		"nums = [1, 2, 3]\n", "nums = [1, 2, 3]\ntotal = 0\nfor n in nums:\n    total += n\nprint(total)",
		`for\s+\w+\s+in\s+nums`, models.ValidationRegexMatch, models.TierPro,
	},
	{
		"Define a function", "عرّف دالة",
		"Write a function square(x) that returns x * x.", "اكتب دالة square(x) تعيد x * x.",
		"def square(x):\n    pass\n", "def square(x):\n    return x * x",
		"return x * x", models.ValidationContains, models.TierVIP,
	},
}

const pythonPathID = "seed-path-python"

// SeedCatalog creates a bilingual demo course and learning path. Existing
// seed rows are left untouched, so it is safe to run repeatedly.
func SeedCatalog(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedCourse(tx); err != nil {
			return fmt.Errorf("seed course: %w", err)
		}
		if err := seedPath(tx); err != nil {
			return fmt.Errorf("seed path: %w", err)
		}
		return nil
	})
}

func seedCourse(tx *gorm.DB) error {
	var n int64
	tx.Model(&models.Course{}).Where("id = ?", introCourse.id).Count(&n)
	if n > 0 {
		logger.Info().Str("course_id", introCourse.id).Msg("Seed course exists, skipping")
		return nil
	}

	course := models.Course{
		ID:            introCourse.id,
		TitleEn:       introCourse.titleEn,
		TitleAr:       introCourse.titleAr,
		DescriptionEn: introCourse.descriptionEn,
		DescriptionAr: introCourse.descrAr,
		Price:         introCourse.price,
		IsPublished:   true,
	}
	if err := tx.Create(&course).Error; err != nil {
		return err
	}

	for i, ch := range introCourse.chapters {
		chapter := models.Chapter{
			CourseID:     course.ID,
			ChapterOrder: i + 1,
			TitleEn:      ch.titleEn,
			TitleAr:      ch.titleAr,
			IsFree:       ch.free,
		}
		if err := tx.Create(&chapter).Error; err != nil {
			return err
		}
		for j, l := range ch.lessons {
			chapterID := chapter.ID
			lesson := models.Lesson{
				ChapterID:   &chapterID,
				LessonOrder: j + 1,
				Type:        l.kind,
				IsFree:      l.free,
				TitleEn:     l.titleEn,
				TitleAr:     l.titleAr,
				ContentEn:   l.contentEn,
				ContentAr:   l.contentAr,
			}
			if err := tx.Create(&lesson).Error; err != nil {
				return err
			}
		}
	}

	logger.Info().Str("course_id", course.ID).Int("chapters", len(introCourse.chapters)).Msg("Seeded course")
	return nil
}

func seedPath(tx *gorm.DB) error {
	var n int64
	tx.Model(&models.LearningPath{}).Where("id = ?", pythonPathID).Count(&n)
	if n > 0 {
		logger.Info().Str("path_id", pythonPathID).Msg("Seed path exists, skipping")
		return nil
	}

	path := models.LearningPath{
		ID:            pythonPathID,
		Slug:          "python-challenges",
		TitleEn:       "Python Challenges",
		TitleAr:       "تحديات بايثون",
		DescriptionEn: "Hands-on exercises graded as you go.",
		DescriptionAr: "تمارين عملية تُقيَّم أثناء التقدم.",
		Icon:          "python",
		RequiredTier:  models.TierPro,
		IsPublished:   true,
	}
	if err := tx.Create(&path).Error; err != nil {
		return err
	}

	for i, c := range pythonPath {
		lesson := models.Lesson{
			Type:                models.LessonInteractive,
			TitleEn:             c.titleEn,
			TitleAr:             c.titleAr,
			ProgrammingLanguage: "python",
			ChallengeEn:         c.challengeEn,
			ChallengeAr:         c.challengeAr,
			StarterCode:         c.starter,
			ReferenceSolution:   c.solution,
			ExpectedOutput:      c.expected,
			ValidationType:      c.validation,
		}
		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}
		entry := models.PathLesson{
			PathID:       path.ID,
			LessonID:     lesson.ID,
			OrderNumber:  (i + 1) * 10,
			RequiredTier: c.tier,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
	}

	logger.Info().Str("path_id", path.ID).Int("lessons", len(pythonPath)).Msg("Seeded learning path")
	return nil
}
