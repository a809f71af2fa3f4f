package service

import (
	"context"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
)

// VoucherService manages vouchers. Returned vouchers carry the status derived
// at read time, so an expired voucher reads as inactive.
type VoucherService struct {
	repo repository.VoucherStore
	now  func() time.Time
}

func NewVoucherService(repo repository.VoucherStore) *VoucherService {
	return &VoucherService{repo: repo, now: time.Now}
}

func (s *VoucherService) Create(ctx context.Context, actor policy.Actor, v *domain.Voucher) error {
	if err := policy.Authorize(actor, policy.ActionManageVoucher, 0); err != nil {
		return err
	}
	if err := validateVoucher(v); err != nil {
		return err
	}
	v.Status = domain.InitialVoucherStatus(v.ExpiryDate, s.now())
	return s.repo.CreateVoucher(ctx, v)
}

func (s *VoucherService) Get(ctx context.Context, id int64) (*domain.Voucher, error) {
	if id <= 0 {
		return nil, invalid("voucher_id", "must be a positive integer")
	}
	v, err := s.repo.GetVoucher(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Status = v.CurrentStatus(s.now())
	return v, nil
}

// List is public: buyers pick a voucher at checkout.
func (s *VoucherService) List(ctx context.Context) ([]*domain.Voucher, error) {
	vouchers, err := s.repo.ListVouchers(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, v := range vouchers {
		v.Status = v.CurrentStatus(now)
	}
	return vouchers, nil
}

func (s *VoucherService) Update(ctx context.Context, actor policy.Actor, v *domain.Voucher) error {
	if err := policy.Authorize(actor, policy.ActionManageVoucher, 0); err != nil {
		return err
	}
	if v.ID <= 0 {
		return invalid("voucher_id", "must be a positive integer")
	}
	if err := validateVoucher(v); err != nil {
		return err
	}
	v.Status = domain.InitialVoucherStatus(v.ExpiryDate, s.now())
	return s.repo.UpdateVoucher(ctx, v)
}

// ChangeStatus lets an admin switch a voucher on or off explicitly.
func (s *VoucherService) ChangeStatus(ctx context.Context, actor policy.Actor, id int64, status domain.VoucherStatus) error {
	if err := policy.Authorize(actor, policy.ActionManageVoucher, 0); err != nil {
		return err
	}
	if id <= 0 {
		return invalid("voucher_id", "must be a positive integer")
	}
	if status != domain.VoucherStatusActive && status != domain.VoucherStatusInactive {
		return invalid("status", "must be active or inactive")
	}
	return s.repo.SetVoucherStatus(ctx, id, status)
}

func (s *VoucherService) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.ActionManageVoucher, 0); err != nil {
		return err
	}
	if id <= 0 {
		return invalid("voucher_id", "must be a positive integer")
	}
	return s.repo.DeleteVoucher(ctx, id)
}

func validateVoucher(v *domain.Voucher) error {
	v.Code = cleanText(v.Code)
	switch {
	case v.Code == "":
		return invalid("code", "is required")
	case v.DiscountAmount.IsNegative():
		return invalid("discount_amount", "must not be negative")
	case v.StartDate.IsZero():
		return invalid("start_date", "is required")
	case v.ExpiryDate.IsZero():
		return invalid("expiry_date", "is required")
	case v.ExpiryDate.Before(v.StartDate):
		return invalid("expiry_date", "must not be before start_date")
	}
	return nil
}
