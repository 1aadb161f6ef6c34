package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/canteen-gateway/internal/model"
	"github.com/nimasrn/canteen-gateway/internal/queue"
	"github.com/nimasrn/canteen-gateway/internal/repository"
	"github.com/nimasrn/canteen-gateway/internal/services"
	"github.com/nimasrn/canteen-gateway/pkg/pg"
	"github.com/nimasrn/canteen-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testDB = pg.DB

type TestEnvironment struct {
	DB                 *pg.DB
	Redis              *miniredis.Miniredis
	RedisAdapter       redis.RedisAdapter
	Queue              *queue.Queue
	UserRepo           *repository.UserRepository
	StudentRepo        *repository.StudentRepository
	ProductRepo        *repository.ProductRepository
	TransactionRepo    *repository.TransactionRepository
	TopUpRepo          *repository.TopUpRepository
	TransactionService *services.TransactionService
	TopUpService       *services.TopUpService
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
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

	pgDB := &testDB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	redisAdapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	queueConfig := queue.QueueConfig{
		Name:              "test:queue",
		ConsumerGroup:     "test-group",
		ConsumerName:      "test-consumer",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      100 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
		EnableDLQ:         true,
	}

	q, err := queue.NewQueue(redisAdapter, queueConfig)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(pgDB)
	studentRepo := repository.NewStudentRepository(pgDB)
	productRepo := repository.NewProductRepository(pgDB)
	transactionRepo := repository.NewTransactionRepository(pgDB)
	topupRepo := repository.NewTopUpRepository(pgDB)

	transactionService := services.NewTransactionService(transactionRepo, studentRepo, productRepo)
	topupService := services.NewTopUpService(topupRepo, studentRepo, userRepo, q)

	return &TestEnvironment{
		DB:                 pgDB,
		Redis:              mr,
		RedisAdapter:       redisAdapter,
		Queue:              q,
		UserRepo:           userRepo,
		StudentRepo:        studentRepo,
		ProductRepo:        productRepo,
		TransactionRepo:    transactionRepo,
		TopUpRepo:          topupRepo,
		TransactionService: transactionService,
		TopUpService:       topupService,
	}
}

func (env *TestEnvironment) Cleanup() {
	// Stop queue first (gracefully drain messages)
	if env.Queue != nil {
		_ = env.Queue.Stop(5 * time.Second)
	}
	// Give time for any in-flight operations to complete
	time.Sleep(100 * time.Millisecond)
	// Then close Redis
	if env.Redis != nil {
		env.Redis.Close()
	}
}

func (env *TestEnvironment) seedStudent(t *testing.T, userID int64, nis string, balance uint) *repository.StudentEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:           userID,
		Email:        fmt.Sprintf("student%d@school.test", userID),
		PasswordHash: "hash",
		Name:         "Student " + nis,
		Role:         "STUDENT",
		Status:       "ACTIVE",
	}
	require.NoError(t, env.DB.Write(ctx).Create(user).Error)

	student := &repository.StudentEntity{
		UserID:  userID,
		NIS:     nis,
		Name:    "Student " + nis,
		Class:   "7A",
		Balance: balance,
	}
	require.NoError(t, env.DB.Write(ctx).Create(student).Error)
	return student
}

func (env *TestEnvironment) seedProduct(t *testing.T, name string, price uint, stock int) *repository.ProductEntity {
	ctx := context.Background()
	product := &repository.ProductEntity{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "meal",
		Status:   "AVAILABLE",
	}
	require.NoError(t, env.DB.Write(ctx).Create(product).Error)
	return product
}

func (env *TestEnvironment) seedAdmin(t *testing.T, userID int64) *repository.AdminEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:           userID,
		Email:        fmt.Sprintf("admin%d@school.test", userID),
		PasswordHash: "hash",
		Name:         "Admin",
		Role:         "ADMIN",
		Status:       "ACTIVE",
	}
	require.NoError(t, env.DB.Write(ctx).Create(user).Error)

	admin := &repository.AdminEntity{UserID: userID, Name: "Admin"}
	require.NoError(t, env.DB.Write(ctx).Create(admin).Error)
	return admin
}

func (env *TestEnvironment) seedParent(t *testing.T, userID int64, studentIDs ...int64) *repository.ParentEntity {
	ctx := context.Background()
	user := &repository.UserEntity{
		ID:           userID,
		Email:        fmt.Sprintf("parent%d@school.test", userID),
		PasswordHash: "hash",
		Name:         "Parent",
		Role:         "PARENT",
		Status:       "ACTIVE",
	}
	require.NoError(t, env.DB.Write(ctx).Create(user).Error)

	parent := &repository.ParentEntity{UserID: userID, Name: "Parent", Phone: "+628123456789"}
	require.NoError(t, env.DB.Write(ctx).Create(parent).Error)

	for _, sid := range studentIDs {
		link := &repository.ParentStudentEntity{ParentID: parent.ID, StudentID: sid}
		require.NoError(t, env.DB.Write(ctx).Create(link).Error)
	}
	return parent
}

func (env *TestEnvironment) studentBalance(t *testing.T, studentID int64) uint {
	var student repository.StudentEntity
	err := env.DB.Read(context.Background()).First(&student, studentID).Error
	require.NoError(t, err)
	return student.Balance
}

func (env *TestEnvironment) productStock(t *testing.T, productID int64) int {
	var product repository.ProductEntity
	err := env.DB.Read(context.Background()).First(&product, productID).Error
	require.NoError(t, err)
	return product.Stock
}

func TestE2E_PurchaseDebitsBalanceAndStock(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 1, "2024-001", 100000)
	product := env.seedProduct(t, "Fried Rice", 15000, 10)

	txn, err := env.TransactionService.Create(ctx, model.TransactionCreateRequest{
		StudentID: student.ID,
		Items: []model.TransactionItemRequest{
			// The client-sent unit price is ignored; the stored one
			// comes from the product row.
			{ProductID: product.ID, Quantity: 2, UnitPrice: 1},
		},
		Method: model.PaymentMethodBalance,
	})
	require.NoError(t, err)
	assert.NotZero(t, txn.ID)
	assert.NotEmpty(t, txn.Number)
	assert.Equal(t, model.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, uint(30000), txn.Total)

	require.Len(t, txn.Items, 1)
	assert.Equal(t, uint(15000), txn.Items[0].UnitPrice)
	assert.Equal(t, uint(30000), txn.Items[0].Subtotal)

	assert.Equal(t, uint(70000), env.studentBalance(t, student.ID))
	assert.Equal(t, 8, env.productStock(t, product.ID))
}

func TestE2E_PurchaseInsufficientBalance(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 2, "2024-002", 1000)
	product := env.seedProduct(t, "Chicken Katsu", 20000, 5)

	txn, err := env.TransactionService.Create(ctx, model.TransactionCreateRequest{
		StudentID: student.ID,
		Items:     []model.TransactionItemRequest{{ProductID: product.ID, Quantity: 1}},
		Method:    model.PaymentMethodBalance,
	})
	assert.ErrorIs(t, err, services.ErrInsufficientBalance)
	assert.Nil(t, txn)

	assert.Equal(t, uint(1000), env.studentBalance(t, student.ID))
	assert.Equal(t, 5, env.productStock(t, product.ID))

	var count int64
	env.DB.Read(ctx).Model(&repository.TransactionEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_CashPurchaseLeavesBalanceAlone(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 3, "2024-003", 0)
	product := env.seedProduct(t, "Iced Tea", 5000, 50)

	txn, err := env.TransactionService.Create(ctx, model.TransactionCreateRequest{
		StudentID: student.ID,
		Items:     []model.TransactionItemRequest{{ProductID: product.ID, Quantity: 3}},
		Method:    model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(15000), txn.Total)

	assert.Equal(t, uint(0), env.studentBalance(t, student.ID))
	assert.Equal(t, 47, env.productStock(t, product.ID))
}

func TestE2E_CancelRestoresBalanceAndStock(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 4, "2024-004", 50000)
	product := env.seedProduct(t, "Fried Rice", 15000, 10)

	txn, err := env.TransactionService.Create(ctx, model.TransactionCreateRequest{
		StudentID: student.ID,
		Items:     []model.TransactionItemRequest{{ProductID: product.ID, Quantity: 2}},
		Method:    model.PaymentMethodBalance,
	})
	require.NoError(t, err)
	require.Equal(t, uint(20000), env.studentBalance(t, student.ID))
	require.Equal(t, 8, env.productStock(t, product.ID))

	cancelled, err := env.TransactionService.Cancel(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCancelled, cancelled.Status)

	assert.Equal(t, uint(50000), env.studentBalance(t, student.ID))
	assert.Equal(t, 10, env.productStock(t, product.ID))

	// Cancelling twice must not refund twice.
	_, err = env.TransactionService.Cancel(ctx, txn.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyCancelled)
	assert.Equal(t, uint(50000), env.studentBalance(t, student.ID))
}

func TestE2E_TopUpApprovalCreditsBalance(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 5, "2024-005", 10000)
	parent := env.seedParent(t, 6, student.ID)
	admin := env.seedAdmin(t, 7)

	parentActor := model.AuthUser{UserID: parent.UserID, Role: model.RoleParent}
	adminActor := model.AuthUser{UserID: admin.UserID, Role: model.RoleAdmin}

	topup, err := env.TopUpService.Create(ctx, parentActor, model.TopUpCreateRequest{
		StudentID: student.ID,
		Amount:    50000,
		Method:    "TRANSFER",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TopUpStatusPending, topup.Status)
	require.NotNil(t, topup.ParentID)
	assert.Equal(t, parent.ID, *topup.ParentID)

	// Nothing credited until the admin decides.
	assert.Equal(t, uint(10000), env.studentBalance(t, student.ID))

	approved, err := env.TopUpService.Approve(ctx, adminActor, topup.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TopUpStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.ID, *approved.ApprovedBy)

	assert.Equal(t, uint(60000), env.studentBalance(t, student.ID))

	stats, err := env.Queue.GetStats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalMessages, int64(1))

	// A second approval must not credit again.
	_, err = env.TopUpService.Approve(ctx, adminActor, topup.ID)
	assert.ErrorIs(t, err, services.ErrTopUpNotPending)
	assert.Equal(t, uint(60000), env.studentBalance(t, student.ID))
}

func TestE2E_TopUpRejectLeavesBalanceAlone(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 8, "2024-008", 10000)
	parent := env.seedParent(t, 9, student.ID)
	admin := env.seedAdmin(t, 10)

	parentActor := model.AuthUser{UserID: parent.UserID, Role: model.RoleParent}
	adminActor := model.AuthUser{UserID: admin.UserID, Role: model.RoleAdmin}

	topup, err := env.TopUpService.Create(ctx, parentActor, model.TopUpCreateRequest{
		StudentID: student.ID,
		Amount:    50000,
		Method:    "TRANSFER",
	})
	require.NoError(t, err)

	rejected, err := env.TopUpService.Reject(ctx, adminActor, topup.ID, "proof image unreadable")
	require.NoError(t, err)
	assert.Equal(t, model.TopUpStatusRejected, rejected.Status)
	assert.Contains(t, rejected.Notes, "proof image unreadable")

	assert.Equal(t, uint(10000), env.studentBalance(t, student.ID))
}

func TestE2E_UnlinkedParentCannotRequestTopUp(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 11, "2024-011", 0)
	parent := env.seedParent(t, 12) // no link to the student

	parentActor := model.AuthUser{UserID: parent.UserID, Role: model.RoleParent}

	topup, err := env.TopUpService.Create(ctx, parentActor, model.TopUpCreateRequest{
		StudentID: student.ID,
		Amount:    50000,
		Method:    "TRANSFER",
	})
	assert.ErrorIs(t, err, services.ErrParentNotLinked)
	assert.Nil(t, topup)

	var count int64
	env.DB.Read(ctx).Model(&repository.TopUpEntity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestE2E_TopUpEventConsumption(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 13, "2024-013", 0)
	parent := env.seedParent(t, 14, student.ID)
	admin := env.seedAdmin(t, 15)

	parentActor := model.AuthUser{UserID: parent.UserID, Role: model.RoleParent}
	adminActor := model.AuthUser{UserID: admin.UserID, Role: model.RoleAdmin}

	topup, err := env.TopUpService.Create(ctx, parentActor, model.TopUpCreateRequest{
		StudentID: student.ID,
		Amount:    25000,
		Method:    "TRANSFER",
	})
	require.NoError(t, err)

	_, err = env.TopUpService.Approve(ctx, adminActor, topup.ID)
	require.NoError(t, err)

	received := make(chan bool, 1)
	handler := func(ctx context.Context, qMsg *queue.Message) error {
		var ev model.TopUpEvent
		err := json.Unmarshal(qMsg.Data, &ev)
		assert.NoError(t, err)
		assert.Equal(t, topup.ID, ev.TopUpID)
		assert.Equal(t, model.TopUpEventApproved, ev.Event)
		assert.Equal(t, fmt.Sprintf("parent%d@school.test", parent.UserID), ev.ParentEmail)
		assert.Equal(t, uint(25000), ev.Amount)
		received <- true
		return nil
	}

	err = env.Queue.Consume(handler)
	require.NoError(t, err)

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("top-up event not consumed within timeout")
	}
}

func TestE2E_ListTransactions(t *testing.T) {
	env := setupE2EEnvironment(t)
	defer env.Cleanup()

	ctx := context.Background()

	student := env.seedStudent(t, 16, "2024-016", 100000)
	product := env.seedProduct(t, "Iced Tea", 5000, 100)

	for i := 0; i < 5; i++ {
		_, err := env.TransactionService.Create(ctx, model.TransactionCreateRequest{
			StudentID: student.ID,
			Items:     []model.TransactionItemRequest{{ProductID: product.ID, Quantity: 1}},
			Method:    model.PaymentMethodBalance,
		})
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	filter := model.TransactionFilter{
		StudentID: &student.ID,
		Limit:     10,
		Offset:    0,
	}

	transactions, total, err := env.TransactionService.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, transactions, 5)

	assert.Equal(t, uint(75000), env.studentBalance(t, student.ID))
	assert.Equal(t, 95, env.productStock(t, product.ID))
}
