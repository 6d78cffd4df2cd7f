package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

func newRepositoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.CreditTransaction{}))
	return db
}

func seedLedgerUser(t *testing.T, db *gorm.DB, balance int64) *models.User {
	t.Helper()
	user := &models.User{
		Name:          "Ledger Tester",
		Email:         "ledger@example.org",
		Password:      "irrelevant",
		Role:          models.ROLE_USER,
		Status:        models.STATUS_ACTIVE,
		CreditBalance: balance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func ledgerRows(t *testing.T, db *gorm.DB, userID uint) []models.CreditTransaction {
	t.Helper()
	var rows []models.CreditTransaction
	require.NoError(t, db.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error)
	return rows
}

func userBalance(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.CreditBalance
}

func TestAdjustCreditsAppliesDeltaAndWritesOneLedgerRow(t *testing.T) {
	db := newRepositoryDB(t)
	repo := NewRepository(db)
	user := seedLedgerUser(t, db, 0)

	entry, err := repo.AdjustCredits(user.ID, 500, models.CREDIT_TX_CREDIT,
		"admin_adjustment", "Ajustement manuel", "")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, int64(500), userBalance(t, db, user.ID))

	rows := ledgerRows(t, db, user.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(500), rows[0].Amount)
	assert.Equal(t, int64(500), rows[0].BalanceAfter)
	assert.Equal(t, models.CREDIT_TX_CREDIT, rows[0].Type)
	assert.Equal(t, "admin_adjustment", rows[0].ServiceType)
	assert.Equal(t, "Ajustement manuel", rows[0].Description)
}

func TestAdjustCreditsSequenceKeepsBalanceAfterConsistent(t *testing.T) {
	db := newRepositoryDB(t)
	repo := NewRepository(db)
	user := seedLedgerUser(t, db, 0)

	_, err := repo.AdjustCredits(user.ID, 500, models.CREDIT_TX_CREDIT,
		models.SERVICE_MARKETPLACE, "Achat de pack", "pay_1")
	require.NoError(t, err)
	_, err = repo.AdjustCredits(user.ID, -200, models.CREDIT_TX_DEBIT,
		models.SERVICE_MARKETPLACE, "Extraction marketplace", "sess_1")
	require.NoError(t, err)

	assert.Equal(t, int64(300), userBalance(t, db, user.ID))

	rows := ledgerRows(t, db, user.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(500), rows[0].BalanceAfter)
	assert.Equal(t, int64(300), rows[1].BalanceAfter)
	assert.Equal(t, "sess_1", rows[1].ReferenceID)
}

func TestAdjustCreditsRejectsOverdraft(t *testing.T) {
	db := newRepositoryDB(t)
	repo := NewRepository(db)
	user := seedLedgerUser(t, db, 100)

	entry, err := repo.AdjustCredits(user.ID, -150, models.CREDIT_TX_DEBIT,
		models.SERVICE_MARKETPLACE, "Extraction marketplace", "sess_2")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Nil(t, entry)

	// Neither side of the transaction may have landed.
	assert.Equal(t, int64(100), userBalance(t, db, user.ID))
	assert.Empty(t, ledgerRows(t, db, user.ID))
}

func TestAdjustCreditsRejectsZeroAmountAndUnknownUser(t *testing.T) {
	db := newRepositoryDB(t)
	repo := NewRepository(db)
	user := seedLedgerUser(t, db, 100)

	_, err := repo.AdjustCredits(user.ID, 0, models.CREDIT_TX_ADJUSTMENT,
		"admin_adjustment", "Ajustement manuel", "")
	assert.Error(t, err)

	_, err = repo.AdjustCredits(user.ID+999, 50, models.CREDIT_TX_CREDIT,
		"admin_adjustment", "Ajustement manuel", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.Equal(t, int64(100), userBalance(t, db, user.ID))
	assert.Empty(t, ledgerRows(t, db, user.ID))
}
