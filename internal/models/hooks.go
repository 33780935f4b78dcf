package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error         { ensureID(&u.ID); return nil }
func (c *Course) BeforeCreate(*gorm.DB) error       { ensureID(&c.ID); return nil }
func (c *Chapter) BeforeCreate(*gorm.DB) error      { ensureID(&c.ID); return nil }
func (l *Lesson) BeforeCreate(*gorm.DB) error       { ensureID(&l.ID); return nil }
func (p *LearningPath) BeforeCreate(*gorm.DB) error { ensureID(&p.ID); return nil }
func (p *PathLesson) BeforeCreate(*gorm.DB) error   { ensureID(&p.ID); return nil }
func (p *Progress) BeforeCreate(*gorm.DB) error     { ensureID(&p.ID); return nil }
func (c *Certificate) BeforeCreate(*gorm.DB) error  { ensureID(&c.ID); return nil }
func (a *CodeAttempt) BeforeCreate(*gorm.DB) error  { ensureID(&a.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error     { ensureID(&c.ID); return nil }
func (p *Purchase) BeforeCreate(*gorm.DB) error     { ensureID(&p.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error      { ensureID(&p.ID); return nil }
func (a *AdminAction) BeforeCreate(*gorm.DB) error  { ensureID(&a.ID); return nil }
