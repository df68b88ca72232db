package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

const (
	defaultPostCategory = "general"
	maxSlugAttempts     = 50
	maxPostTitleLength  = 200
)

type PostService interface {
	Create(ctx context.Context, actor Actor, input CreatePostInput) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, category *string, limit, offset int) ([]models.Post, error)
	Delete(ctx context.Context, actor Actor, slug string) error
}

type CreatePostInput struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
}

type postService struct {
	postRepo repositories.PostRepository
	logger   *slog.Logger
}

func NewPostService(postRepo repositories.PostRepository, logger *slog.Logger) PostService {
	return &postService{postRepo: postRepo, logger: logger}
}

// uniqueSlug returns base, or base suffixed with -2, -3... when taken.
func (s *postService) uniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.postRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: too many posts share this title", ErrValidationFailed)
}

func (s *postService) Create(ctx context.Context, actor Actor, input CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPostTitleRequired
	}
	if len(title) > maxPostTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrValidationFailed, maxPostTitleLength)
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, ErrPostBodyRequired
	}
	category := slug.Make(input.Category)
	if category == "" {
		category = defaultPostCategory
	}

	base := slug.Make(title)
	if base == "" {
		base = "post"
	}

	post := &models.Post{
		AuthorID: actor.UserID,
		Title:    title,
		Body:     body,
		Category: category,
	}
	// a concurrent insert can take the slug between the check and the insert
	for attempt := 0; attempt < 3; attempt++ {
		candidate, err := s.uniqueSlug(ctx, base)
		if err != nil {
			return nil, handleRepositoryError(err, "pick post slug")
		}
		post.Slug = candidate
		err = s.postRepo.Create(ctx, post)
		if err == nil {
			s.logger.InfoContext(ctx, "post created", slog.Int("post_id", post.ID), slog.String("slug", post.Slug))
			return post, nil
		}
		if !errors.Is(err, repositories.ErrPostSlugConflict) {
			return nil, handleRepositoryError(err, "create post")
		}
	}
	return nil, fmt.Errorf("failed to create post: %w", repositories.ErrPostSlugConflict)
}

func (s *postService) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, handleRepositoryError(err, "get post")
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, category *string, limit, offset int) ([]models.Post, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if category != nil {
		c := slug.Make(*category)
		category = &c
	}
	posts, err := s.postRepo.List(ctx, repositories.ListPostsFilter{Category: category, Limit: limit, Offset: offset})
	if err != nil {
		return nil, handleRepositoryError(err, "list posts")
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func (s *postService) Delete(ctx context.Context, actor Actor, slug string) error {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return handleRepositoryError(err, "get post")
	}
	if post.AuthorID != actor.UserID && !actor.IsAdmin() {
		return ErrForbiddenOperation
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return handleRepositoryError(err, "delete post")
	}
	s.logger.InfoContext(ctx, "post deleted", slog.Int("post_id", post.ID), slog.Int("by", actor.UserID))
	return nil
}
