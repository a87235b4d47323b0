package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/storage"
	"village/internal/validation"
)

// PortfolioUpload is a file and its description
type PortfolioUpload struct {
	CourseID    *int64
	Title       string
	Description string
	Date        time.Time
	ContentType string
	Size        int64
	Body        io.Reader
}

// PortfolioService stores samples of a child's work
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	courseRepo    *repository.CourseRepository
	store         storage.Store
	families      *FamilyService
	awards        *AchievementService
	clock         *Clock
	maxSize       int64
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	courseRepo *repository.CourseRepository,
	store storage.Store,
	families *FamilyService,
	awards *AchievementService,
	clock *Clock,
	maxSize int64,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		courseRepo:    courseRepo,
		store:         store,
		families:      families,
		awards:        awards,
		clock:         clock,
		maxSize:       maxSize,
	}
}

// normalizeContentType drops parameters such as charset
func normalizeContentType(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Upload stores a file and records it in the child's portfolio
func (s *PortfolioService) Upload(ctx context.Context, userID, childID int64, up PortfolioUpload) (*models.PortfolioItem, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}

	up.Title = strings.TrimSpace(up.Title)
	if err := validation.ValidateRequired("title", up.Title, 200); err != nil {
		return nil, err
	}
	if s.maxSize > 0 && up.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}
	contentType := normalizeContentType(up.ContentType)
	if _, ok := storage.Extension(contentType); !ok {
		return nil, ErrUnsupportedFileType
	}
	if up.CourseID != nil {
		course, err := s.courseRepo.GetCourseByID(*up.CourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		if course == nil || course.ChildID != childID {
			return nil, validation.ValidationError{Field: "course_id", Message: "course does not belong to this child"}
		}
	}
	if up.Date.IsZero() {
		up.Date = s.clock.Today()
	}

	key := storage.NewKey(childID, contentType)
	if err := s.store.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	item, err := s.portfolioRepo.Create(&models.PortfolioItem{
		ChildID:     childID,
		CourseID:    up.CourseID,
		Title:       up.Title,
		Description: strings.TrimSpace(up.Description),
		Date:        up.Date,
		FileKey:     key,
		ContentType: contentType,
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			log.Printf("Warning: failed to remove orphaned upload %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("failed to save portfolio item: %w", err)
	}

	s.withURL(ctx, item)
	s.awards.afterChange(childID)
	return item, nil
}

func (s *PortfolioService) withURL(ctx context.Context, item *models.PortfolioItem) {
	if item.FileKey == "" {
		return
	}
	url, err := s.store.URL(ctx, item.FileKey)
	if err != nil {
		log.Printf("Warning: failed to build URL for %s: %v", item.FileKey, err)
		return
	}
	item.URL = url
}

// List returns a child's portfolio with download links
func (s *PortfolioService) List(ctx context.Context, userID, childID int64, courseID *int64, dr repository.DateRange) ([]models.PortfolioItem, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	items, err := s.portfolioRepo.List(childID, courseID, dr)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio: %w", err)
	}
	for i := range items {
		s.withURL(ctx, &items[i])
	}
	return items, nil
}

// Delete removes a portfolio item and its stored file
func (s *PortfolioService) Delete(ctx context.Context, userID, itemID int64) error {
	item, err := s.portfolioRepo.GetByID(itemID)
	if err != nil {
		return fmt.Errorf("failed to get portfolio item: %w", err)
	}
	if item == nil {
		return ErrPortfolioNotFound
	}
	if _, err := s.families.ChildForUser(userID, item.ChildID); err != nil {
		return err
	}
	if err := s.portfolioRepo.Delete(itemID); err != nil {
		return fmt.Errorf("failed to delete portfolio item: %w", err)
	}
	if item.FileKey != "" {
		if err := s.store.Delete(ctx, item.FileKey); err != nil {
			log.Printf("Warning: failed to delete stored file %s: %v", item.FileKey, err)
		}
	}
	return nil
}
