package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"shahadati/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Serialize access through one connection to keep sqlite happy
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.AccessCode{}))
	return db
}

func createCode(t *testing.T, db *gorm.DB, code string, limit int, mutate func(*models.AccessCode)) *models.AccessCode {
	t.Helper()
	ac := &models.AccessCode{
		Code:       code,
		Status:     models.AccessCodeActive,
		TemplateID: 1,
		CreatedBy:  1,
		UsageLimit: limit,
	}
	if mutate != nil {
		mutate(ac)
	}
	require.NoError(t, db.Create(ac).Error)
	return ac
}

func TestValidateUnknownCode(t *testing.T) {
	l := New(setupTestDB(t))

	result, err := l.Validate("NOPE")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonNotFound, result.Reason)
}

func TestValidateActiveCode(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "GOOD1", 3, nil)

	result, err := New(db).Validate("GOOD1")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}

func TestValidateExpiredCode(t *testing.T) {
	db := setupTestDB(t)
	past := time.Now().Add(-time.Hour)
	createCode(t, db, "OLD01", 1, func(ac *models.AccessCode) { ac.ExpiresAt = &past })

	result, err := New(db).Validate("OLD01")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonExpired, result.Reason)
}

func TestValidateDisabledCode(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "DIS01", 1, func(ac *models.AccessCode) { ac.Status = models.AccessCodeDisabled })

	result, err := New(db).Validate("DIS01")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonDisabled, result.Reason)
}

// Disable is terminal from any state, so a code that is both disabled
// and past its expiry reports disabled.
func TestValidateDisabledWinsOverExpired(t *testing.T) {
	db := setupTestDB(t)
	past := time.Now().Add(-time.Hour)
	createCode(t, db, "DEAD1", 1, func(ac *models.AccessCode) {
		ac.Status = models.AccessCodeDisabled
		ac.ExpiresAt = &past
	})

	result, err := New(db).Validate("DEAD1")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonDisabled, result.Reason)
}

func TestValidateExhaustedCode(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "FULL1", 2, func(ac *models.AccessCode) { ac.UsedCount = 2 })

	result, err := New(db).Validate("FULL1")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ReasonExhausted, result.Reason)
}

func TestConsumeOnceSingleUse(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "ONCE1", 1, nil)
	l := New(db)

	result, err := l.ConsumeOnce("ONCE1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewUsedCount)

	// Second consumption hits the usage limit
	_, err = l.ConsumeOnce("ONCE1")
	assert.ErrorIs(t, err, ErrExhausted)

	var ac models.AccessCode
	require.NoError(t, db.Where("code = ?", "ONCE1").First(&ac).Error)
	assert.Equal(t, 1, ac.UsedCount)
}

func TestConsumeOnceSurfacesPreciseReason(t *testing.T) {
	db := setupTestDB(t)
	l := New(db)

	past := time.Now().Add(-time.Minute)
	createCode(t, db, "EXP01", 1, func(ac *models.AccessCode) { ac.ExpiresAt = &past })
	createCode(t, db, "DIS02", 1, func(ac *models.AccessCode) { ac.Status = models.AccessCodeDisabled })

	_, err := l.ConsumeOnce("MISSING")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.ConsumeOnce("EXP01")
	assert.ErrorIs(t, err, ErrExpired)

	_, err = l.ConsumeOnce("DIS02")
	assert.ErrorIs(t, err, ErrDisabled)
}

// TestConsumeOnceNoDoubleSpend fires concurrent consumptions at a code
// with one use left: exactly one may win.
func TestConsumeOnceNoDoubleSpend(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "RACE1", 1, nil)
	l := New(db)

	const callers = 2
	results := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, results[i] = l.ConsumeOnce("RACE1")
		}(i)
	}
	wg.Wait()

	successes, exhausted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case err == ErrExhausted:
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, exhausted)

	var ac models.AccessCode
	require.NoError(t, db.Where("code = ?", "RACE1").First(&ac).Error)
	assert.Equal(t, ac.UsageLimit, ac.UsedCount)
}

func TestConsumeOnceMultiUse(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "MULTI", 3, nil)
	l := New(db)

	for want := 1; want <= 3; want++ {
		result, err := l.ConsumeOnce("MULTI")
		require.NoError(t, err)
		assert.Equal(t, want, result.NewUsedCount)
	}

	_, err := l.ConsumeOnce("MULTI")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDisable(t *testing.T) {
	db := setupTestDB(t)
	createCode(t, db, "KILL1", 5, nil)
	l := New(db)

	require.NoError(t, l.Disable("KILL1"))

	result, err := l.Validate("KILL1")
	require.NoError(t, err)
	assert.Equal(t, ReasonDisabled, result.Reason)

	assert.ErrorIs(t, l.Disable("GHOST"), ErrNotFound)
}

func TestExpireOverdue(t *testing.T) {
	db := setupTestDB(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	createCode(t, db, "SWEEP", 1, func(ac *models.AccessCode) { ac.ExpiresAt = &past })
	createCode(t, db, "KEEP1", 1, func(ac *models.AccessCode) { ac.ExpiresAt = &future })
	createCode(t, db, "KEEP2", 1, nil)

	swept, err := New(db).ExpireOverdue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	var ac models.AccessCode
	require.NoError(t, db.Where("code = ?", "SWEEP").First(&ac).Error)
	assert.Equal(t, models.AccessCodeExpired, ac.Status)

	require.NoError(t, db.Where("code = ?", "KEEP1").First(&ac).Error)
	assert.Equal(t, models.AccessCodeActive, ac.Status)
}
