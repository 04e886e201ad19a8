// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/marlonyi/senas-web/models"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler flips scheduled courses active once their publish
// time passes.
func (s *CourseService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.publishDueCourses(time.Now())
		}),
	)
}

func (s *CourseService) publishDueCourses(now time.Time) {
	var courses []models.Course
	err := s.DB.Where("active = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, now).
		Find(&courses).Error
	if err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for _, course := range courses {
		course.Active = true
		course.PublishAt = nil
		if err := s.DB.Save(&course).Error; err != nil {
			log.Printf("[Scheduler] Failed to publish course %s: %v", course.ID, err)
		} else {
			log.Printf("[Scheduler] Auto-published course: %s", course.Name)
		}
	}
}
