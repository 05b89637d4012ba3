package repo

import (
	"context"

	"gorm.io/gorm"

	"gorm-trashbin/internal/domain"
	"gorm-trashbin/internal/trash"
)

type PostRepo struct {
	posts   *trash.Repo[domain.Post, *domain.Post]
	authors *trash.Repo[domain.Author, *domain.Author]
}

func NewPostRepo(db *gorm.DB, opts ...trash.Option) (*PostRepo, error) {
	posts, err := trash.NewRepo[domain.Post](db, opts...)
	if err != nil {
		return nil, err
	}
	authors, err := trash.NewRepo[domain.Author](db, opts...)
	if err != nil {
		return nil, err
	}
	return &PostRepo{posts: posts, authors: authors}, nil
}

func (r *PostRepo) Posts() *trash.Repo[domain.Post, *domain.Post]       { return r.posts }
func (r *PostRepo) Authors() *trash.Repo[domain.Author, *domain.Author] { return r.authors }

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error { return r.posts.Create(ctx, p) }

func (r *PostRepo) Find(ctx context.Context, id uint, withTrashed bool) (*domain.Post, error) {
	return firstOrNil(r.posts.Query(ctx).WithTrashed(withTrashed).Key(id).First())
}

func (r *PostRepo) List(ctx context.Context, in domain.PostListQuery) ([]*domain.Post, int64, error) {
	q := r.posts.Query(ctx)
	switch {
	case in.OnlyTrashed:
		q = q.OnlyTrashed()
	case in.WithTrashed:
		q = q.WithTrashed()
	}
	if in.AuthorID > 0 {
		q = q.Where("author_id = ?", in.AuthorID)
	}
	if in.HasAuthor {
		q = q.WhereHas(r.authors.Table(), "author_id", r.authors.PrimaryKey())
	}

	total, err := q.Count()
	if err != nil {
		return nil, 0, err
	}
	posts, err := q.Order("id DESC").Offset(in.Offset).Limit(in.Limit).Find()
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Delete 软删：搬到 posts_trash；不存在返回 false
func (r *PostRepo) Delete(ctx context.Context, id uint) (bool, error) {
	var ok bool
	err := r.posts.Transaction(ctx, func(tx *trash.Repo[domain.Post, *domain.Post]) error {
		p, err := firstOrNil(tx.Query(ctx).Key(id).First())
		if err != nil || p == nil {
			return err
		}
		n, err := tx.Delete(ctx, p)
		ok = n > 0
		return err
	})
	return ok, err
}

// ForceDelete 两张表都删
func (r *PostRepo) ForceDelete(ctx context.Context, id uint) (bool, error) {
	var ok bool
	err := r.posts.Transaction(ctx, func(tx *trash.Repo[domain.Post, *domain.Post]) error {
		p, err := firstOrNil(tx.Query(ctx).WithTrashed().Key(id).First())
		if err != nil || p == nil {
			return err
		}
		ok, err = tx.ForceDelete(ctx, p)
		return err
	})
	return ok, err
}

func (r *PostRepo) Restore(ctx context.Context, id uint) (bool, error) {
	var ok bool
	err := r.posts.Transaction(ctx, func(tx *trash.Repo[domain.Post, *domain.Post]) error {
		p, err := firstOrNil(tx.Query(ctx).OnlyTrashed().Key(id).First())
		if err != nil || p == nil {
			return err
		}
		ok, err = tx.Restore(ctx, p)
		return err
	})
	return ok, err
}

var _ domain.PostRepository = (*PostRepo)(nil)
