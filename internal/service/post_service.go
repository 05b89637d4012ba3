package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gorm-trashbin/internal/core/cache"
	"gorm-trashbin/internal/domain"
)

var ErrNotFound = errors.New("not found")

type PostService struct {
	repo  domain.PostRepository
	cache *cache.Cache // 可为 nil（直接回源）
	ttl   time.Duration
	log   *zap.Logger
}

func NewPostService(repo domain.PostRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *PostService {
	if l == nil {
		l = zap.NewNop()
	}
	return &PostService{repo: repo, cache: c, ttl: ttl, log: l}
}

func postKey(id uint) string { return fmt.Sprintf("post:%d", id) }

// Get 读缓存；只返回正常（未删除）的文章
func (s *PostService) Get(ctx context.Context, id uint) (*domain.Post, error) {
	load := func(ctx context.Context) (*domain.Post, error) {
		p, err := s.repo.Find(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrNotFound
		}
		return p, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	p, err := cache.GetOrLoadJSON(s.cache, ctx, postKey(id), s.ttl, load, ErrNotFound)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *PostService) Create(ctx context.Context, p *domain.Post) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.Invalidate(ctx, p.ID)
	return nil
}

func (s *PostService) List(ctx context.Context, q domain.PostListQuery) ([]*domain.Post, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, q)
}

func (s *PostService) Delete(ctx context.Context, id uint) error {
	return s.mutate(ctx, id, s.repo.Delete)
}

func (s *PostService) ForceDelete(ctx context.Context, id uint) error {
	return s.mutate(ctx, id, s.repo.ForceDelete)
}

func (s *PostService) Restore(ctx context.Context, id uint) error {
	return s.mutate(ctx, id, s.repo.Restore)
}

// Invalidate 文章搬表后清缓存
func (s *PostService) Invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, postKey(id)); err != nil {
		s.log.Warn("post cache invalidate failed", zap.Uint("id", id), zap.Error(err))
	}
}

func (s *PostService) mutate(ctx context.Context, id uint, op func(context.Context, uint) (bool, error)) error {
	ok, err := op(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.Invalidate(ctx, id)
	return nil
}
