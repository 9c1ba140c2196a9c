package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/errs"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/model"
	"github.com/mangesh-sakordekar/Neighborhood-Library/library/internal/repository"
)

type Members struct {
	log *zap.Logger
	now Clock
}

func NewMembers(log *zap.Logger, opts ...Option) *Members {
	o := newOptions(opts)
	return &Members{
		log: log.Named("members"),
		now: o.clock,
	}
}

func (s *Members) Create(ctx context.Context, st repository.Store, name, contact string) (model.Member, error) {
	now := s.now()
	member, err := st.InsertMember(ctx, model.Member{
		Name:      strings.TrimSpace(name),
		Contact:   strings.TrimSpace(contact),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.Warn("create member", zap.Error(err))
		return model.Member{}, err
	}
	s.log.Info("created member", zap.Int64("member_id", member.ID), zap.String("member_name", member.Name))
	return member, nil
}

func (s *Members) List(ctx context.Context, st repository.Store) ([]model.Member, error) {
	return st.SelectMembers(ctx)
}

func (s *Members) Get(ctx context.Context, st repository.Store, id int64) (model.Member, bool, error) {
	return s.get(ctx, st, id, false)
}

func (s *Members) GetForUpdate(ctx context.Context, st repository.Store, id int64) (model.Member, bool, error) {
	return s.get(ctx, st, id, true)
}

func (s *Members) get(ctx context.Context, st repository.Store, id int64, lock bool) (model.Member, bool, error) {
	member, err := st.SelectMember(ctx, id, lock)
	if errors.Is(err, errs.ErrNotFound) {
		return model.Member{}, false, nil
	}
	if err != nil {
		return model.Member{}, false, err
	}
	return member, true, nil
}

func (s *Members) Update(ctx context.Context, st repository.Store, member model.Member, name, contact string) (model.Member, error) {
	member.Name = strings.TrimSpace(name)
	member.Contact = strings.TrimSpace(contact)
	member.UpdatedAt = s.now()
	return st.UpdateMember(ctx, member)
}

// Delete removes the row; callers check for open borrowings first.
func (s *Members) Delete(ctx context.Context, st repository.Store, member model.Member) error {
	if err := st.DeleteMember(ctx, member.ID); err != nil {
		return err
	}
	s.log.Info("deleted member", zap.Int64("member_id", member.ID))
	return nil
}
