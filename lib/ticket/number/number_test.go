package ticketnumber

import (
	"testing"
	"time"

	ticketapimodels "employee-portal-backend/models/api/ticket"
	dbmodels "employee-portal-backend/models/db"
	"employee-portal-backend/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeTicketStore struct {
	lastNumber string
	err        error
}

func (f fakeTicketStore) Create(rec dbmodels.Ticket) (string, error) { return "", nil }
func (f fakeTicketStore) GetByID(id string) (*dbmodels.Ticket, error) { return nil, nil }
func (f fakeTicketStore) Update(id string, updMap map[string]interface{}) error { return nil }
func (f fakeTicketStore) UpdateStatusIf(id string, oldStatus, newStatus models.TicketStatus, updMap map[string]interface{}) (bool, error) {
	return false, nil
}
func (f fakeTicketStore) GetLastNumber(prefix string) (string, error) { return f.lastNumber, f.err }
func (f fakeTicketStore) List(filter ticketapimodels.TicketFilter) ([]dbmodels.Ticket, error) {
	return nil, nil
}
func (f fakeTicketStore) ListCount(filter ticketapimodels.TicketFilter) (int64, error) {
	return 0, nil
}
func (f fakeTicketStore) ListUnfinished() ([]dbmodels.Ticket, error) { return nil, nil }
func (f fakeTicketStore) ListResolved() ([]dbmodels.Ticket, error)  { return nil, nil }
func (f fakeTicketStore) ListClosedBefore(moment time.Time) ([]dbmodels.Ticket, error) {
	return nil, nil
}

func TestTicketNumber(t *testing.T) {
	fixedNow := func() time.Time { return time.Unix(1754321234, 0) }

	t.Run(`формат и разбор номера`, func(t *testing.T) {
		require.Equal(t, "IT-000001", Format("IT", 1))
		require.Equal(t, "TR-012345", Format("TR", 12345))
		require.Equal(t, "IT-1000001", Format("IT", 1000001))

		seq, ok := ParseSequence("IT-000042")
		require.True(t, ok)
		require.Equal(t, 42, seq)

		_, ok = ParseSequence("IT000042")
		require.False(t, ok)
		_, ok = ParseSequence("IT-")
		require.False(t, ok)
		_, ok = ParseSequence("IT-abc")
		require.False(t, ok)
	})

	t.Run(`первый номер`, func(t *testing.T) {
		provider := impl{store: fakeTicketStore{}, now: fixedNow}
		require.Equal(t, "IT-000001", provider.Next(models.TicketTypeIT))
		require.Equal(t, "TR-000001", provider.Next(models.TicketTypeTravel))
	})

	t.Run(`инкремент номера`, func(t *testing.T) {
		provider := impl{store: fakeTicketStore{lastNumber: "IT-000041"}, now: fixedNow}
		require.Equal(t, "IT-000042", provider.Next(models.TicketTypeIT))
	})

	t.Run(`резервный номер при ошибке хранилища`, func(t *testing.T) {
		provider := impl{store: fakeTicketStore{err: errors.New("db down")}, now: fixedNow}
		expected := Format("IT", int(fixedNow().Unix()%1000000))
		require.Equal(t, expected, provider.Next(models.TicketTypeIT))
	})

	t.Run(`резервный номер при нечитаемом номере`, func(t *testing.T) {
		provider := impl{store: fakeTicketStore{lastNumber: "IT-corrupt"}, now: fixedNow}
		expected := Format("IT", int(fixedNow().Unix()%1000000))
		require.Equal(t, expected, provider.Next(models.TicketTypeIT))
	})
}
