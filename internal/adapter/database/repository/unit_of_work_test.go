package repository_test

import (
	"context"
	"testing"
	"time"

	. "taskmanagement/pkg/test"

	"taskmanagement/internal/adapter/database/repository"
	"taskmanagement/internal/core/domain"
	"taskmanagement/internal/core/port"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

// countingRepository records how often Find runs.
type countingRepository struct {
	port.Repository[domain.TodoItem]
	finds int
}

func (c *countingRepository) Find(ctx context.Context, predicate port.Predicate[domain.TodoItem]) ([]domain.TodoItem, error) {
	c.finds++
	return c.Repository.Find(ctx, predicate)
}

func TestUnitOfWork_GetRepositoryReturnsSameInstance(t *testing.T) {
	RegisterTestingT(t)

	uow := repository.NewUnitOfWork(SetupTestDB(t), nil)

	first := repository.GetRepository[domain.TodoItem](uow)
	second := repository.GetRepository[domain.TodoItem](uow)

	Expect(first).To(BeIdenticalTo(second))
	Expect(uow.Len()).To(Equal(1))
}

func TestUnitOfWork_SeparateUnitsDoNotShareRepositories(t *testing.T) {
	RegisterTestingT(t)

	db := SetupTestDB(t)

	a := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(db, nil))
	b := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(db, nil))

	Expect(a).ToNot(BeIdenticalTo(b))
}

func TestUnitOfWork_WritesAreVisibleAcrossUnits(t *testing.T) {
	RegisterTestingT(t)

	db := SetupTestDB(t)

	writer := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(db, nil))
	created, err := writer.Add(context.Background(), domain.NewTodoItem("t", "d", time.Now()))
	Expect(err).To(BeNil())

	reader := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(db, nil))
	_, found, err := reader.FindOne(context.Background(), created.ID)

	Expect(err).To(BeNil())
	Expect(found).To(BeTrue())
}

func TestUnitOfWork_SessionIsStable(t *testing.T) {
	uow := repository.NewUnitOfWork(SetupTestDB(t), nil)

	assert.Same(t, uow.Session(), uow.Session())
	assert.NotEmpty(t, uow.Session().ID)
}

func TestQuery_IsDeferred(t *testing.T) {
	RegisterTestingT(t)

	uow := repository.NewUnitOfWork(SetupTestDB(t), nil)
	repo := &countingRepository{Repository: repository.GetRepository[domain.TodoItem](uow)}

	query := repository.Select[domain.TodoItem](repo, nil, func(item domain.TodoItem) string {
		return item.Title
	})

	Expect(repo.finds).To(Equal(0))

	repo.Add(context.Background(), domain.NewTodoItem("added after building", "", time.Now()))

	titles, err := query.ToSlice(context.Background())

	Expect(err).To(BeNil())
	Expect(titles).To(ConsistOf("added after building"))
	Expect(repo.finds).To(Equal(1))

	count, err := query.Count(context.Background())
	Expect(err).To(BeNil())
	Expect(count).To(Equal(1))
	Expect(repo.finds).To(Equal(2))
}

func TestQuery_WhereAndFirstOrDefault(t *testing.T) {
	RegisterTestingT(t)

	uow := repository.NewUnitOfWork(SetupTestDB(t), nil)
	repo := repository.GetRepository[domain.TodoItem](uow)

	for _, title := range []string{"alpha", "beta", "gamma"} {
		_, err := repo.Add(context.Background(), domain.NewTodoItem(title, "", time.Now()))
		Expect(err).To(BeNil())
	}

	base := repository.Select(repo, nil, func(item domain.TodoItem) string { return item.Title })
	filtered := base.Where(func(title string) bool { return title != "alpha" })

	first, ok, err := filtered.FirstOrDefault(context.Background())
	Expect(err).To(BeNil())
	Expect(ok).To(BeTrue())
	Expect(first).To(Equal("beta"))

	all, err := base.ToSlice(context.Background())
	Expect(err).To(BeNil())
	Expect(all).To(HaveLen(3))

	_, ok, err = base.Where(func(string) bool { return false }).FirstOrDefault(context.Background())
	Expect(err).To(BeNil())
	Expect(ok).To(BeFalse())
}

func TestSeedTodoItems(t *testing.T) {
	RegisterTestingT(t)

	db := SetupTestDB(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	added, err := repository.SeedTodoItems(context.Background(), repository.NewUnitOfWork(db, nil), now)
	Expect(err).To(BeNil())
	Expect(added).To(Equal(2))

	items, err := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(db, nil)).Find(context.Background(), nil)
	Expect(err).To(BeNil())
	Expect(items).To(HaveLen(2))
	Expect(items[0].Title).To(Equal("Clean the dishes"))
	Expect(items[1].Title).To(Equal("Wash dirty clothes"))
	Expect(items[0].DueDate.Equal(now.Add(7 * 24 * time.Hour))).To(BeTrue())

	added, err = repository.SeedTodoItems(context.Background(), repository.NewUnitOfWork(db, nil), now)
	Expect(err).To(BeNil())
	Expect(added).To(Equal(0))
}
