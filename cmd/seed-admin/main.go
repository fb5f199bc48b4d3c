// seed-admin creates or updates the admin console user (username: savAdmin).
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "savAdmin"
	adminPassword = "S@vPointAdmin"
	adminName     = "SAV Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	// Audit hooks read the actor from context.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetIsAdminInContext(ctx, true)

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	seedDefaultShowroom(ctx, db)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: adminUsername,
			Name:     adminName,
			Password: hashedStr,
			IsActive: utils.NewTrue(),
			Role:     models.UserRoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("admin user created:", adminUsername)
		return
	}

	// Reset password/role on an existing admin (recovery path).
	updates := map[string]interface{}{
		"password":  hashedStr,
		"is_active": true,
		"role":      models.UserRoleAdmin,
		"name":      adminName,
	}
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("admin user updated:", adminUsername)
}

// seedDefaultShowroom ensures at least one showroom exists so ticket intake
// works on a fresh database.
func seedDefaultShowroom(ctx context.Context, db *gorm.DB) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Showroom{}).Count(&count).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count showrooms: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		return
	}
	showroom := models.Showroom{Name: "Main Showroom"}
	if err := db.WithContext(ctx).Create(&showroom).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create default showroom: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("default showroom created:", showroom.Name)
}
