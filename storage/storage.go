package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert collides with an existing entity.
var ErrConflict = errors.New("already exists")

const usersPartition = "user"

// Config names the tables and queue backing the service.
type Config struct {
	ConnStr            string
	TasksTable         string
	GroupsTable        string
	MembersTable       string
	ActivitiesTable    string
	NotificationsTable string
	TimeEntriesTable   string
	UsersTable         string
	DigestQueue        string
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	tasks         *aztables.Client
	groups        *aztables.Client
	members       *aztables.Client
	activities    *aztables.Client
	notifications *aztables.Client
	timeEntries   *aztables.Client
	users         *aztables.Client
	digestQueue   *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(cfg Config) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		tasks:         svc.NewClient(cfg.TasksTable),
		groups:        svc.NewClient(cfg.GroupsTable),
		members:       svc.NewClient(cfg.MembersTable),
		activities:    svc.NewClient(cfg.ActivitiesTable),
		notifications: svc.NewClient(cfg.NotificationsTable),
		timeEntries:   svc.NewClient(cfg.TimeEntriesTable),
		users:         svc.NewClient(cfg.UsersTable),
	}
	if cfg.DigestQueue != "" {
		queueClientOptions := azqueue.ClientOptions{
			ClientOptions: azcore.ClientOptions{
				Retry: policy.RetryOptions{
					MaxRetries:    5,
					TryTimeout:    time.Minute * 5,
					RetryDelay:    time.Second * 1,
					MaxRetryDelay: time.Second * 60,
					StatusCodes:   []int{408, 429, 500, 502, 503, 504},
				},
			},
		}
		dq, err := azqueue.NewQueueClientFromConnectionString(cfg.ConnStr, cfg.DigestQueue, &queueClientOptions)
		if err != nil {
			return nil, err
		}
		s.digestQueue = dq
	}
	return s, nil
}

// EnsureTables creates every configured table, tolerating ones that already
// exist.
func (s *Storage) EnsureTables(ctx context.Context) error {
	for _, c := range []*aztables.Client{s.tasks, s.groups, s.members, s.activities, s.notifications, s.timeEntries, s.users} {
		if _, err := c.CreateTable(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
	}
	if s.digestQueue != nil {
		if _, err := s.digestQueue.Create(ctx, nil); err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
				return err
			}
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func isConflict(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 409
}

func listAll(ctx context.Context, c *aztables.Client, filter string, each func([]byte) error) error {
	pager := c.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			if err := each(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func marshalEntity(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
