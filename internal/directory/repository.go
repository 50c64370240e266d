package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository is the read-oriented boundary to the population directory. The
// engine resolves users and enumerates populations through it; profile CRUD
// lives elsewhere.
type Repository interface {
	GetUser(ctx context.Context, ref UserRef) (*UserInfo, error)
	ListUsersByLocality(ctx context.Context, localityID uint) ([]UserInfo, error)
	ListUsersByKind(ctx context.Context, kind UserKind, localityID *uint) ([]UserInfo, error)
	ListAllUsers(ctx context.Context, localityID *uint) ([]UserInfo, error)

	LocalityExists(ctx context.Context, localityID uint) (bool, error)
	ListLocalities(ctx context.Context) ([]Locality, error)
	ListLocalitiesByDistrict(ctx context.Context, districtID uint) ([]Locality, error)
	DistrictExists(ctx context.Context, districtID uint) (bool, error)

	DistrictAdminExists(ctx context.Context, id string) (bool, error)
	LocalityAdminExists(ctx context.Context, id string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) GetUser(ctx context.Context, ref UserRef) (*UserInfo, error) {
	if ref.Kind == KindCitizen {
		var c Citizen
		if err := r.db.WithContext(ctx).First(&c, "id = ?", ref.ID).Error; err != nil {
			return nil, err
		}
		return &UserInfo{ID: c.ID, Kind: KindCitizen, Name: c.Name, Email: c.Email, PhoneNumber: c.PhoneNumber, LocalityID: c.LocalityID}, nil
	}

	var w Worker
	if err := r.db.WithContext(ctx).First(&w, "id = ?", ref.ID).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: w.ID, Kind: KindWorker, Name: w.Name, Email: w.Email, PhoneNumber: w.PhoneNumber, LocalityID: w.LocalityID}, nil
}

func (r *repository) ListUsersByLocality(ctx context.Context, localityID uint) ([]UserInfo, error) {
	return r.ListAllUsers(ctx, &localityID)
}

func (r *repository) ListUsersByKind(ctx context.Context, kind UserKind, localityID *uint) ([]UserInfo, error) {
	var users []UserInfo

	if kind == KindCitizen {
		var citizens []Citizen
		query := r.db.WithContext(ctx)
		if localityID != nil {
			query = query.Where("locality_id = ?", *localityID)
		}
		if err := query.Find(&citizens).Error; err != nil {
			return nil, err
		}
		for _, c := range citizens {
			users = append(users, UserInfo{ID: c.ID, Kind: KindCitizen, Name: c.Name, Email: c.Email, PhoneNumber: c.PhoneNumber, LocalityID: c.LocalityID})
		}
		return users, nil
	}

	var workers []Worker
	query := r.db.WithContext(ctx)
	if localityID != nil {
		query = query.Where("locality_id = ?", *localityID)
	}
	if err := query.Find(&workers).Error; err != nil {
		return nil, err
	}
	for _, w := range workers {
		users = append(users, UserInfo{ID: w.ID, Kind: KindWorker, Name: w.Name, Email: w.Email, PhoneNumber: w.PhoneNumber, LocalityID: w.LocalityID})
	}
	return users, nil
}

func (r *repository) ListAllUsers(ctx context.Context, localityID *uint) ([]UserInfo, error) {
	citizens, err := r.ListUsersByKind(ctx, KindCitizen, localityID)
	if err != nil {
		return nil, err
	}
	workers, err := r.ListUsersByKind(ctx, KindWorker, localityID)
	if err != nil {
		return nil, err
	}
	return append(citizens, workers...), nil
}

func (r *repository) LocalityExists(ctx context.Context, localityID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Locality{}).Where("id = ?", localityID).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListLocalities(ctx context.Context) ([]Locality, error) {
	var localities []Locality
	err := r.db.WithContext(ctx).Order("id ASC").Find(&localities).Error
	return localities, err
}

func (r *repository) DistrictExists(ctx context.Context, districtID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&District{}).Where("id = ?", districtID).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListLocalitiesByDistrict(ctx context.Context, districtID uint) ([]Locality, error) {
	var localities []Locality
	err := r.db.WithContext(ctx).Where("district_id = ?", districtID).Order("id ASC").Find(&localities).Error
	return localities, err
}

func (r *repository) DistrictAdminExists(ctx context.Context, id string) (bool, error) {
	var admin DistrictAdmin
	err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) LocalityAdminExists(ctx context.Context, id string) (bool, error) {
	var admin LocalityAdmin
	err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
