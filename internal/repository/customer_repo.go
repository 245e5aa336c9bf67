package repository

import (
	"errors"

	"punchcard/internal/models"

	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreate resolves a customer id coming off a scan, creating a bare row
// the first time this customer is ever stamped.
func (r *CustomerRepository) GetOrCreate(id uint) (*models.Customer, error) {
	var c models.Customer
	err := r.db.First(&c, id).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c = models.Customer{ID: id}
	if err := r.db.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
