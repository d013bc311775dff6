package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateCoreTables creates the users, wallets, sales, commission entries,
// network edges and activities tables
func CreateCoreTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_core_tables",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					username VARCHAR(255) NOT NULL UNIQUE,
					email VARCHAR(255) NOT NULL UNIQUE,
					password VARCHAR(255) NOT NULL,
					display_name VARCHAR(255),
					tier VARCHAR(20) NOT NULL DEFAULT 'basic',
					referral_code VARCHAR(20) NOT NULL UNIQUE,
					referred_by UUID REFERENCES users(id),
					disabled BOOLEAN DEFAULT FALSE,
					is_admin BOOLEAN DEFAULT FALSE,
					last_login_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code);
				CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS wallets (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL UNIQUE REFERENCES users(id),
					currency VARCHAR(3) NOT NULL DEFAULT 'USD',
					total_earned DECIMAL(20, 2) DEFAULT 0,
					pending DECIMAL(20, 2) DEFAULT 0,
					available DECIMAL(20, 2) DEFAULT 0,
					tier VARCHAR(20) NOT NULL DEFAULT 'basic',
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets(user_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS sales (
					id UUID PRIMARY KEY,
					reference VARCHAR(100) NOT NULL UNIQUE,
					buyer_ref VARCHAR(255),
					gross_amount DECIMAL(20, 2) NOT NULL,
					gross_currency VARCHAR(3) NOT NULL,
					amount DECIMAL(20, 2) NOT NULL,
					currency VARCHAR(3) NOT NULL,
					referrer_id UUID REFERENCES users(id),
					status VARCHAR(20) NOT NULL DEFAULT 'paid',
					hold_release_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_sales_reference ON sales(reference);
				CREATE INDEX IF NOT EXISTS idx_sales_referrer_id ON sales(referrer_id);
			`).Error; err != nil {
				return err
			}

			if err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS commission_entries (
					id UUID PRIMARY KEY,
					sale_id UUID NOT NULL REFERENCES sales(id),
					beneficiary_id UUID NOT NULL REFERENCES users(id),
					level INT NOT NULL,
					percent DECIMAL(10, 2) NOT NULL,
					amount DECIMAL(20, 2) NOT NULL,
					currency VARCHAR(3) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'pending',
					hold_release_at TIMESTAMP WITH TIME ZONE,
					released_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_commission_entries_beneficiary ON commission_entries(beneficiary_id, status, hold_release_at);
				CREATE INDEX IF NOT EXISTS idx_commission_entries_sale ON commission_entries(sale_id);
			`).Error; err != nil {
				return err
			}

			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS network_edges (
					id UUID PRIMARY KEY,
					referrer_id UUID NOT NULL REFERENCES users(id),
					member_id UUID NOT NULL REFERENCES users(id),
					display_name VARCHAR(255),
					tier VARCHAR(20),
					level INT NOT NULL,
					member_since TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_network_edges_referrer ON network_edges(referrer_id, level);

				CREATE TABLE IF NOT EXISTS activities (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id),
					type VARCHAR(50) NOT NULL,
					message TEXT,
					meta_data JSONB,
					created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
					deleted_at TIMESTAMP WITH TIME ZONE
				);

				CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id, created_at);
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec("DROP TABLE IF EXISTS activities").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS network_edges").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS commission_entries").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS sales").Error; err != nil {
				return err
			}
			if err := tx.Exec("DROP TABLE IF EXISTS wallets").Error; err != nil {
				return err
			}
			return tx.Exec("DROP TABLE IF EXISTS users").Error
		},
	}
}
