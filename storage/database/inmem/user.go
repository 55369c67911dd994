package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.table {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := ""
	var roles map[user.Role]bool
	if !filter.IsEmpty() {
		search = strings.ToLower(filter.Search)
		if len(filter.Roles) > 0 {
			roles = make(map[user.Role]bool, len(filter.Roles))
			for _, r := range filter.Roles {
				roles[r] = true
			}
		}
	}

	users := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.db.table {
		if roles != nil && !roles[usr.Role] {
			continue
		}
		if search != "" && !(strings.Contains(strings.ToLower(usr.FirstName), search) ||
			strings.Contains(strings.ToLower(usr.LastName), search) ||
			strings.Contains(usr.Username, search) ||
			strings.Contains(usr.Email, search)) {
			continue
		}
		users = append(users, *usr)
	}
	sortUsers(users, ordering)
	return users, nil
}

// sortUsers orders by the known orderings, then newest first.
func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "email":
				cmp = strings.Compare(a.Email, b.Email)
			case "first_name":
				cmp = strings.Compare(a.FirstName, b.FirstName)
			case "last_name":
				cmp = strings.Compare(a.LastName, b.LastName)
			case "username":
				cmp = strings.Compare(a.Username, b.Username)
			case "role":
				cmp = strings.Compare(string(a.Role), string(b.Role))
			case "created_at":
				cmp = compareTimes(a.CreatedAt, b.CreatedAt)
			}
			if cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.table {
		if (filter.Email != "" && usr.Email == filter.Email) || (filter.Username != "" && usr.Username == filter.Username) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	origUsr, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	origUsr.FirstName = usr.FirstName
	origUsr.LastName = usr.LastName
	origUsr.Username = usr.Username
	origUsr.Role = usr.Role
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *userRepository) CountUsersByRole(_ context.Context) (map[user.Role]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[user.Role]int, len(user.AllRoles))
	for _, usr := range repo.db.table {
		counts[usr.Role]++
	}
	return counts, nil
}
