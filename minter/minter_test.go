package minter

import (
	"fmt"
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

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Certificate{}))
	return db
}

func testInput() MintInput {
	return MintInput{
		StudentName:  "Ahmed Ali",
		TemplateID:   1,
		AccessCodeID: 1,
		IssuedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMintNumberFormat(t *testing.T) {
	m := New(setupTestDB(t))

	result, err := m.Mint(testInput())
	require.NoError(t, err)

	assert.Regexp(t, `^CERT-20250101-\d{6}-\d{6}$`, result.CertificateNumber)
	assert.Regexp(t, `^[0-9a-f]{64}$`, result.VerificationHash)
}

// Identical inputs must yield distinct numbers; the random component is
// what makes collisions negligible.
func TestMintDistinctNumbers(t *testing.T) {
	m := New(setupTestDB(t))

	first, err := m.Mint(testInput())
	require.NoError(t, err)
	second, err := m.Mint(testInput())
	require.NoError(t, err)

	assert.NotEqual(t, first.CertificateNumber, second.CertificateNumber)

	// Forcing the same number onto the hash makes both computations agree
	in := testInput()
	h1 := VerificationHash(first.CertificateNumber, in.StudentName, "1", "1", in.IssuedAt)
	h2 := VerificationHash(first.CertificateNumber, in.StudentName, "1", "1", in.IssuedAt)
	assert.Equal(t, h1, h2)
	assert.Equal(t, first.VerificationHash, h1)
}

func TestVerificationHashDeterministic(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	base := VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t1", "a1", issuedAt)
	assert.Len(t, base, 64)
	assert.Equal(t, base, VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t1", "a1", issuedAt))
}

// Changing any single field must change the hash.
func TestVerificationHashBindsEveryField(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	base := VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t1", "a1", issuedAt)

	assert.NotEqual(t, base, VerificationHash("CERT-20250101-000001-000002", "Ahmed Ali", "t1", "a1", issuedAt))
	assert.NotEqual(t, base, VerificationHash("CERT-20250101-000001-000001", "Ahmed Alj", "t1", "a1", issuedAt))
	assert.NotEqual(t, base, VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t2", "a1", issuedAt))
	assert.NotEqual(t, base, VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t1", "a2", issuedAt))
	assert.NotEqual(t, base, VerificationHash("CERT-20250101-000001-000001", "Ahmed Ali", "t1", "a1", issuedAt.Add(time.Second)))
}

func TestVerificationHashNormalizesToUTC(t *testing.T) {
	utc := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	offset := utc.In(time.FixedZone("GST", 4*3600))

	assert.Equal(t,
		VerificationHash("CERT-20250601-000001-000001", "Sara", "t1", "a1", utc),
		VerificationHash("CERT-20250601-000001-000001", "Sara", "t1", "a1", offset))
}

// Mint must dodge numbers that already exist in the store.
func TestMintAvoidsExistingNumbers(t *testing.T) {
	db := setupTestDB(t)
	m := New(db)

	taken, err := m.Mint(testInput())
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Certificate{
		CertificateID:     "cert-1",
		CertificateNumber: taken.CertificateNumber,
		VerificationHash:  taken.VerificationHash,
		StudentName:       "Ahmed Ali",
		TemplateID:        1,
		AccessCodeID:      1,
		IssuedAt:          testInput().IssuedAt,
	}).Error)

	for i := 0; i < 20; i++ {
		result, err := m.Mint(testInput())
		require.NoError(t, err)
		assert.NotEqual(t, taken.CertificateNumber, result.CertificateNumber)
	}
}
