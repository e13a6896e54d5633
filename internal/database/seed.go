package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/models"
)

var defaultCategories = []models.Category{
	{Name: "Electronics", Description: "Phones, laptops, chargers and gadgets"},
	{Name: "Books", Description: "Textbooks, novels and study guides"},
	{Name: "Clothing", Description: "Clothes, shoes and accessories"},
	{Name: "Jewellery", Description: "Rings, necklaces, bracelets and watches"},
	{Name: "Furniture", Description: "Desks, chairs and room essentials"},
	{Name: "Food", Description: "Snacks, baked goods and meals"},
	{Name: "Services", Description: "Tutoring, repairs and other services"},
	{Name: "Other", Description: "Everything else"},
}

type seedUser struct {
	email, password, first, last string
	role                         models.UserRole
}

var demoUsers = []seedUser{
	{email: "seller@strathmore.edu", password: "password", first: "Sam", last: "Seller", role: models.RoleSeller},
	{email: "buyer@strathmore.edu", password: "password", first: "Bea", last: "Buyer", role: models.RoleBuyer},
}

// SeedInitialData inserts categories and the default admin. With demo set it
// also adds a seller, a buyer and one sample listing. Existing rows are kept.
func SeedInitialData(db *gorm.DB, demo bool) error {
	logrus.Info("Seeding initial data")

	for _, category := range defaultCategories {
		category := category
		if err := db.Where(models.Category{Name: category.Name}).FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("failed to seed category %s: %w", category.Name, err)
		}
	}

	admin := seedUser{email: "admin@strathmore.edu", password: "admin123", first: "System", last: "Administrator", role: models.RoleAdmin}
	if _, err := ensureUser(db, admin); err != nil {
		return err
	}

	if !demo {
		return nil
	}

	var seller *models.User
	for _, u := range demoUsers {
		created, err := ensureUser(db, u)
		if err != nil {
			return err
		}
		if u.role == models.RoleSeller {
			seller = created
		}
	}

	var count int64
	if err := db.Model(&models.Item{}).Where("seller_id = ?", seller.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count sample items: %w", err)
	}
	if count > 0 {
		return nil
	}

	var electronics models.Category
	if err := db.Where("name = ?", "Electronics").First(&electronics).Error; err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}

	sample := &models.Item{
		SellerID:       seller.ID,
		Title:          "Lenovo ThinkPad T480",
		Description:    "Core i5, 8GB RAM, 256GB SSD. Battery holds about four hours.",
		ItemType:       models.ItemTypeAuction,
		StartingBid:    lo.ToPtr(15000.0),
		CurrentBid:     lo.ToPtr(15000.0),
		Status:         models.ItemStatusActive,
		Images:         pq.StringArray{},
		CategoryID:     &electronics.ID,
		PickupLocation: models.PickupSTC,
	}
	if err := db.Create(sample).Error; err != nil {
		return fmt.Errorf("failed to create sample item: %w", err)
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func ensureUser(db *gorm.DB, u seedUser) (*models.User, error) {
	var existing models.User
	err := db.Where("email = ?", u.email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up %s: %w", u.email, err)
	}

	user := &models.User{
		Email:     u.email,
		FirstName: u.first,
		LastName:  u.last,
		Role:      u.role,
		Status:    models.UserStatusApproved,
	}
	if err := user.SetPassword(u.password); err != nil {
		return nil, fmt.Errorf("failed to set password for %s: %w", u.email, err)
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", u.email, err)
	}
	logrus.WithField("email", u.email).Info("Seeded user")
	return user, nil
}
