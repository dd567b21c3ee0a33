package main

import (
	"errors"
	"fmt"

	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/logger"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/service"

	"gorm.io/gorm"
)

type seedVariant struct {
	SKU   string
	Name  string
	Price int64
	Stock int
}

type seedProduct struct {
	CategorySlug string
	Name         string
	Slug         string
	Description  string
	Variants     []seedVariant
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Debug, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Name: "Pakaian", Slug: "pakaian", SortOrder: 10},
		{Name: "Tas", Slug: "tas", SortOrder: 20},
		{Name: "Aksesoris", Slug: "aksesoris", SortOrder: 30},
	}
	categoryIDs := map[string]uint{}
	for _, cat := range categories {
		var existing models.Category
		err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
				continue
			}
			stdLog.Printf("Created category: %s", cat.Slug)
			categoryIDs[cat.Slug] = cat.ID
			continue
		}
		if err != nil {
			stdLog.Printf("Failed to load category %s: %v", cat.Slug, err)
			continue
		}
		stdLog.Printf("Category already exists: %s", cat.Slug)
		categoryIDs[cat.Slug] = existing.ID
	}

	// 添加商品与规格
	products := []seedProduct{
		{
			CategorySlug: "pakaian",
			Name:         "Kaos Polos",
			Slug:         "kaos-polos",
			Description:  "Kaos katun combed 30s",
			Variants: []seedVariant{
				{SKU: "KP-M-BLK", Name: "M / Hitam", Price: 50000, Stock: 25},
				{SKU: "KP-L-BLK", Name: "L / Hitam", Price: 55000, Stock: 20},
				{SKU: "KP-M-WHT", Name: "M / Putih", Price: 50000, Stock: 0},
			},
		},
		{
			CategorySlug: "tas",
			Name:         "Tas Kanvas",
			Slug:         "tas-kanvas",
			Description:  "Tote bag kanvas tebal",
			Variants: []seedVariant{
				{SKU: "TK-STD-NAT", Name: "Natural", Price: 85000, Stock: 10},
			},
		},
		{
			CategorySlug: "aksesoris",
			Name:         "Topi Baseball",
			Slug:         "topi-baseball",
			Variants: []seedVariant{
				{SKU: "TB-NVY", Name: "Navy", Price: 45000, Stock: 12},
			},
		},
	}
	for _, item := range products {
		categoryID, ok := categoryIDs[item.CategorySlug]
		if !ok {
			stdLog.Printf("Skip product %s: category %s missing", item.Slug, item.CategorySlug)
			continue
		}
		var product models.Product
		err := models.DB.Where("slug = ?", item.Slug).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			product = models.Product{
				CategoryID:  categoryID,
				Name:        item.Name,
				Slug:        item.Slug,
				Description: item.Description,
				IsActive:    true,
			}
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", item.Slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", item.Slug)
		} else if err != nil {
			stdLog.Printf("Failed to load product %s: %v", item.Slug, err)
			continue
		}

		for _, v := range item.Variants {
			var existing models.ProductVariant
			err := models.DB.Where("sku = ?", v.SKU).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				stdLog.Printf("Failed to load variant %s: %v", v.SKU, err)
				continue
			}
			variant := models.ProductVariant{
				ProductID: product.ID,
				SKU:       v.SKU,
				Name:      v.Name,
				Price:     models.NewMoney(v.Price),
				Stock:     v.Stock,
			}
			if err := models.DB.Create(&variant).Error; err != nil {
				stdLog.Printf("Failed to create variant %s: %v", v.SKU, err)
				continue
			}
			stdLog.Printf("Created variant: %s", v.SKU)
		}
	}

	// 演示用户与收货地址
	user := models.User{Email: "demo@tokonext.test", Name: "Demo Pembeli", Phone: "081234567890", Status: constants.UserStatusActive}
	if err := models.DB.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
		stdLog.Fatalf("Failed to create demo user: %v", err)
	}
	var addressCount int64
	models.DB.Model(&models.ShippingAddress{}).Where("user_id = ?", user.ID).Count(&addressCount)
	if addressCount == 0 {
		address := models.ShippingAddress{
			UserID:     user.ID,
			Recipient:  user.Name,
			Phone:      user.Phone,
			Address:    "Jl. Merdeka No. 1",
			Province:   "DKI Jakarta",
			City:       "Jakarta Pusat",
			PostalCode: "10110",
		}
		if err := models.DB.Create(&address).Error; err != nil {
			stdLog.Printf("Failed to create demo address: %v", err)
		}
	}

	// 输出演示 Token，便于直接调用 API
	auth := service.NewUserAuthService(cfg.UserJWT, nil)
	token, expiresAt, err := auth.GenerateUserJWT(&user, cfg.UserJWT.ExpireHours)
	if err != nil {
		stdLog.Printf("Failed to issue demo token: %v", err)
		return
	}
	fmt.Printf("Demo user: %s (id=%d)\n", user.Email, user.ID)
	fmt.Printf("Bearer token (expires %s):\n%s\n", expiresAt.Format("2006-01-02 15:04"), token)
}
