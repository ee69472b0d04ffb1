package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stitchline/stitchline-backend/pkg/util"
	"gorm.io/gorm"
)

// Seeds the measurement template catalog, the shipping settings singleton and
// an admin account so a fresh install is usable immediately.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if err := seedTemplates(); err != nil {
		log.Fatal("Failed to seed templates:", err)
	}
	if err := seedShippingSettings(); err != nil {
		log.Fatal("Failed to seed shipping settings:", err)
	}
	if err := seedAdmin(); err != nil {
		log.Fatal("Failed to seed admin account:", err)
	}

	fmt.Println("Seed completed.")
}

func seedTemplates() error {
	templateRepo := repository.NewTemplateRepository(db.GetDB())

	existing, err := templateRepo.FindAll()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("Templates already seeded (%d found), skipping\n", len(existing))
		return nil
	}

	templates := []model.MeasurementTemplate{
		{
			Title:       "Senator Top",
			Description: "Classic senator top, tailored to your measurements",
			Fields:      []string{"chest", "waist", "length", "sleeve_length", "shoulder_width"},
			BasePrice:   15000,
		},
		{
			Title:       "Agbada",
			Description: "Three-piece agbada set with embroidered detailing",
			Fields:      []string{"chest", "waist", "length", "sleeve_length", "shoulder_width", "neck"},
			BasePrice:   45000,
		},
		{
			Title:       "Kaftan",
			Description: "Fitted kaftan in your choice of fabric",
			Fields:      []string{"chest", "waist", "length", "sleeve_length"},
			BasePrice:   20000,
		},
		{
			Title:       "Trousers",
			Description: "Straight-cut trousers",
			Fields:      []string{"waist", "hip", "inseam", "thigh", "length"},
			BasePrice:   10000,
		},
	}

	for i := range templates {
		if err := templateRepo.Create(&templates[i]); err != nil {
			return err
		}
		fmt.Printf("Seeded template: %s\n", templates[i].Title)
	}
	return nil
}

func seedShippingSettings() error {
	settingsRepo := repository.NewSettingsRepository(db.GetDB())

	if _, err := settingsRepo.GetShippingSettings(); err == nil {
		fmt.Println("Shipping settings already seeded, skipping")
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	settings := &model.ShippingSetting{
		LocationFees: []model.LocationFee{
			{Location: "Lagos", Fee: 1000},
			{Location: "Abuja", Fee: 2500},
			{Location: "Port Harcourt", Fee: 2500},
			{Location: "Ibadan", Fee: 1500},
			{Location: "Kano", Fee: 3000},
		},
		FreeShippingThreshold: 100000,
	}
	if err := settingsRepo.Save(settings); err != nil {
		return err
	}

	fmt.Printf("Seeded shipping settings with %d locations\n", len(settings.LocationFees))
	return nil
}

func seedAdmin() error {
	userRepo := repository.NewUserRepository(db.GetDB())

	const adminEmail = "admin@stitchline.example"
	if _, err := userRepo.FindByEmail(adminEmail); err == nil {
		fmt.Println("Admin account already exists, skipping")
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword("changeme123")
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "Stitchline Admin",
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}

	fmt.Printf("Seeded admin account: %s (change the password)\n", adminEmail)
	return nil
}
