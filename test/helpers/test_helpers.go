package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"github.com/nimasrn/canteen-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.UserEntity{},
		&repository.StudentEntity{},
		&repository.CashierEntity{},
		&repository.AdminEntity{},
		&repository.ParentEntity{},
		&repository.ParentStudentEntity{},
		&repository.ProductEntity{},
		&repository.TransactionEntity{},
		&repository.TransactionItemEntity{},
		&repository.TopUpEntity{},
		&repository.SettingsEntity{},
		&repository.NotificationLogEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	adapter, err := redis.NewRedisAdapter("test", "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, id int64, role string) *repository.UserEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:           id,
		Email:        RandomEmail(id),
		PasswordHash: "$2a$10$test.hash.not.a.real.one",
		Name:         fmt.Sprintf("Test User %d", id),
		Role:         role,
		Status:       "ACTIVE",
		CreatedAt:    time.Now(),
	}
	err := db.Write(ctx).Create(user).Error
	require.NoError(t, err)
	return user
}

func CreateTestStudent(t *testing.T, db *pg.DB, userID int64, nis string, balance uint) *repository.StudentEntity {
	ctx := context.Background()
	student := &repository.StudentEntity{
		UserID:  userID,
		NIS:     nis,
		Name:    fmt.Sprintf("Student %s", nis),
		Class:   "7A",
		Balance: balance,
	}
	err := db.Write(ctx).Create(student).Error
	require.NoError(t, err)
	return student
}

func CreateTestProduct(t *testing.T, db *pg.DB, name string, price uint, stock int) *repository.ProductEntity {
	ctx := context.Background()
	status := "AVAILABLE"
	if stock == 0 {
		status = "OUT_OF_STOCK"
	}
	product := &repository.ProductEntity{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "snack",
		Status:   status,
	}
	err := db.Write(ctx).Create(product).Error
	require.NoError(t, err)
	return product
}

func CreateTestParent(t *testing.T, db *pg.DB, userID int64, studentIDs ...int64) *repository.ParentEntity {
	ctx := context.Background()
	parent := &repository.ParentEntity{
		UserID: userID,
		Name:   fmt.Sprintf("Parent %d", userID),
		Phone:  "+628123456789",
	}
	err := db.Write(ctx).Create(parent).Error
	require.NoError(t, err)

	for _, sid := range studentIDs {
		link := &repository.ParentStudentEntity{ParentID: parent.ID, StudentID: sid}
		err := db.Write(ctx).Create(link).Error
		require.NoError(t, err)
	}
	return parent
}

func CreateTestAdmin(t *testing.T, db *pg.DB, userID int64) *repository.AdminEntity {
	ctx := context.Background()
	admin := &repository.AdminEntity{
		UserID: userID,
		Name:   fmt.Sprintf("Admin %d", userID),
	}
	err := db.Write(ctx).Create(admin).Error
	require.NoError(t, err)
	return admin
}

func CreateTestCashier(t *testing.T, db *pg.DB, userID int64) *repository.CashierEntity {
	ctx := context.Background()
	cashier := &repository.CashierEntity{
		UserID: userID,
		Name:   fmt.Sprintf("Cashier %d", userID),
		Shift:  "morning",
	}
	err := db.Write(ctx).Create(cashier).Error
	require.NoError(t, err)
	return cashier
}

func CreateTestTopUp(t *testing.T, db *pg.DB, studentID int64, parentID *int64, amount uint, status string) *repository.TopUpEntity {
	ctx := context.Background()
	topup := &repository.TopUpEntity{
		StudentID: studentID,
		ParentID:  parentID,
		Amount:    amount,
		Method:    "TRANSFER",
		Status:    status,
		CreatedAt: time.Now(),
	}
	err := db.Write(ctx).Create(topup).Error
	require.NoError(t, err)
	return topup
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func RandomEmail(id int64) string {
	return fmt.Sprintf("user%d-%s@school.test", id, time.Now().Format("150405"))
}

func Ptr[T any](v T) *T {
	return &v
}
