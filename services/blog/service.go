package blog

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scosmb-portal/pkg/db/option"
	"scosmb-portal/pkg/db/pagination"
	"scosmb-portal/pkg/errutil"
	"scosmb-portal/pkg/repository"
)

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	posts repository.Repository[Post]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		posts: repository.ProvideStore[Post](p.DB),
	}
}

type PostInput struct {
	Title     string
	Content   string
	Category  string
	Tags      []string
	Published bool
}

func (s *Service) Create(ctx context.Context, authorID string, in PostInput) (*Post, error) {
	if in.Title == "" {
		return nil, errutil.ValidationFailed("title is required")
	}

	slugName := slug.Make(in.Title)
	exist, err := s.posts.FindOne(ctx, &Post{Slug: slugName})
	if err != nil {
		return nil, errutil.Internal("failed to create post", errutil.WithErr(err))
	}
	if exist != nil {
		return nil, errutil.Conflict("a post with this title already exists")
	}

	post := &Post{
		ID:        s.node.Generate().String(),
		Title:     in.Title,
		Slug:      slugName,
		Content:   in.Content,
		Category:  in.Category,
		Tags:      in.Tags,
		AuthorID:  authorID,
		Published: in.Published,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		zap.L().Error("failed to create blog post", zap.Error(err))
		return nil, errutil.Internal("failed to create post", errutil.WithErr(err))
	}

	return post, nil
}

func (s *Service) Update(ctx context.Context, postID string, in PostInput) (*Post, error) {
	exist, err := s.posts.FindOne(ctx, &Post{ID: postID})
	if err != nil {
		return nil, errutil.Internal("failed to update post", errutil.WithErr(err))
	}
	if exist == nil {
		return nil, errutil.NotFound("post not found")
	}

	updates := map[string]interface{}{
		"title":     in.Title,
		"content":   in.Content,
		"category":  in.Category,
		"tags":      pq.StringArray(in.Tags),
		"published": in.Published,
	}
	if in.Title != exist.Title {
		updates["slug"] = slug.Make(in.Title)
	}

	if err := s.posts.Update(ctx, postID, updates); err != nil {
		zap.L().Error("failed to update blog post", zap.String("post_id", postID), zap.Error(err))
		return nil, errutil.Internal("failed to update post", errutil.WithErr(err))
	}

	return s.posts.FindOne(ctx, &Post{ID: postID})
}

func (s *Service) Delete(ctx context.Context, postID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", postID).Delete(&Post{})
	if res.Error != nil {
		zap.L().Error("failed to delete blog post", zap.String("post_id", postID), zap.Error(res.Error))
		return errutil.Internal("failed to delete post", errutil.WithErr(res.Error))
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("post not found")
	}
	return nil
}

// GetBySlug returns a published post and bumps its view counter with an
// atomic increment.
func (s *Service) GetBySlug(ctx context.Context, slugName string) (*Post, error) {
	post, err := s.posts.FindOne(ctx, &Post{Slug: slugName, Published: true})
	if err != nil {
		return nil, errutil.Internal("failed to fetch post", errutil.WithErr(err))
	}
	if post == nil {
		return nil, errutil.NotFound("post not found")
	}

	if err := s.db.WithContext(ctx).Model(&Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		zap.L().Warn("failed to bump view counter", zap.String("post_id", post.ID), zap.Error(err))
	} else {
		post.Views++
	}

	return post, nil
}

type ListFilter struct {
	Category string
	Tag      string
	Page     pagination.Pagination
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Post, error) {
	query := &Post{Published: true}
	if f.Category != "" {
		query.Category = f.Category
	}

	posts, err := s.posts.Find(ctx, query,
		option.ApplyPagination(f.Page),
		option.WithSortBy(option.QuerySortBy{Field: "created_at", OrderBy: "DESC"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list posts", errutil.WithErr(err))
	}

	if f.Tag == "" {
		return posts, nil
	}

	// Tag match runs over the fetched page; the array column has no
	// portable containment operator across the test and production dialects.
	tagged := make([]*Post, 0, len(posts))
	for _, p := range posts {
		for _, tag := range p.Tags {
			if tag == f.Tag {
				tagged = append(tagged, p)
				break
			}
		}
	}
	return tagged, nil
}

// Like bumps the like counter atomically.
func (s *Service) Like(ctx context.Context, slugName string) (int64, error) {
	post, err := s.posts.FindOne(ctx, &Post{Slug: slugName, Published: true})
	if err != nil {
		return 0, errutil.Internal("failed to like post", errutil.WithErr(err))
	}
	if post == nil {
		return 0, errutil.NotFound("post not found")
	}

	if err := s.db.WithContext(ctx).Model(&Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
		return 0, errutil.Internal("failed to like post", errutil.WithErr(err))
	}

	return post.Likes + 1, nil
}
