package models

const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// Localize picks the Arabic variant when requested and present, English otherwise.
func Localize(lang, en, ar string) string {
	if lang == LangArabic && ar != "" {
		return ar
	}
	return en
}

func (c Course) Title(lang string) string       { return Localize(lang, c.TitleEn, c.TitleAr) }
func (c Course) Description(lang string) string { return Localize(lang, c.DescriptionEn, c.DescriptionAr) }
func (c Chapter) Title(lang string) string      { return Localize(lang, c.TitleEn, c.TitleAr) }
func (l Lesson) Title(lang string) string       { return Localize(lang, l.TitleEn, l.TitleAr) }
func (l Lesson) Content(lang string) string     { return Localize(lang, l.ContentEn, l.ContentAr) }
func (l Lesson) Challenge(lang string) string   { return Localize(lang, l.ChallengeEn, l.ChallengeAr) }
func (p LearningPath) Title(lang string) string { return Localize(lang, p.TitleEn, p.TitleAr) }
func (p LearningPath) Description(lang string) string {
	return Localize(lang, p.DescriptionEn, p.DescriptionAr)
}
