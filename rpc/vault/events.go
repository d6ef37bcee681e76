package vault

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// DepositedEventsFromApplicationLog retrieves a set of all emitted events
// with "Deposited" name from the provided [result.ApplicationLog].
func DepositedEventsFromApplicationLog(log *result.ApplicationLog) ([]*DepositedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*DepositedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "Deposited" {
				continue
			}
			event := new(DepositedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize DepositedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to DepositedEvent or
// returns an error if it's not possible to do to so.
func (e *DepositedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.From, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field From: %w", err)
	}

	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// WithdrawnEventsFromApplicationLog retrieves a set of all emitted events
// with "Withdrawn" name from the provided [result.ApplicationLog].
func WithdrawnEventsFromApplicationLog(log *result.ApplicationLog) ([]*WithdrawnEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*WithdrawnEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "Withdrawn" {
				continue
			}
			event := new(WithdrawnEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize WithdrawnEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to WithdrawnEvent or
// returns an error if it's not possible to do to so.
func (e *WithdrawnEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.To, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}

	e.Amount, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// OwnerChangedEventsFromApplicationLog retrieves a set of all emitted events
// with "OwnerChanged" name from the provided [result.ApplicationLog].
func OwnerChangedEventsFromApplicationLog(log *result.ApplicationLog) ([]*OwnerChangedEvent, error) {
	if log == nil {
		return nil, errors.New("nil application log")
	}

	var res []*OwnerChangedEvent
	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != "OwnerChanged" {
				continue
			}
			event := new(OwnerChangedEvent)
			err := event.FromStackItem(e.Item)
			if err != nil {
				return nil, fmt.Errorf("failed to deserialize OwnerChangedEvent from stackitem (execution #%d, event #%d): %w", i, j, err)
			}
			res = append(res, event)
		}
	}

	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to OwnerChangedEvent or
// returns an error if it's not possible to do to so.
func (e *OwnerChangedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 2 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	e.OldOwner, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field OldOwner: %w", err)
	}

	e.NewOwner, err = itemToUint160(arr[1])
	if err != nil {
		return fmt.Errorf("field NewOwner: %w", err)
	}

	return nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}
