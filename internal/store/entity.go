package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for any domain type.
//
// Values are stored as JSON documents under prefix+id. Two kinds of
// secondary index are supported:
//
//   - unique indexes (WithUniqueIndex): one entity per key, e.g. a book's
//     ISBN-13. Conflicting writes fail with ErrAlreadyExists.
//   - multi-valued indexes (WithMultiIndex): many entities per key, e.g.
//     comments grouped by book identifier, or books grouped by liker.
//
// Index entries are written in the same Badger transaction as the document,
// so a single read-modify-write stays atomic per document.
type Entity[T any] struct {
	store   *Store
	prefix  string
	idFn    func(*T) string
	indexes []index[T]
}

// index defines a secondary index on an entity.
type index[T any] struct {
	name            string
	unique          bool
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
}

// NewEntity creates a new Entity instance for type T.
// idFn extracts the entity's ID, which multi-valued index keys embed.
func NewEntity[T any](s *Store, prefix string, idFn func(*T) string) *Entity[T] {
	return &Entity[T]{
		store:  s,
		prefix: prefix,
		idFn:   idFn,
	}
}

// WithUniqueIndex adds a unique secondary index to the entity.
// keyGen returns the index values for an entity; empty strings are skipped.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{
		name:   name,
		unique: true,
		keyGen: keyGen,
	})
	return e
}

// WithUniqueIndexTransform adds a unique secondary index whose lookup values
// pass through lookupTransform first, enabling case-insensitive lookups and
// other normalization. keyGen must apply the same transformation.
func (e *Entity[T]) WithUniqueIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{
		name:            name,
		unique:          true,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// WithMultiIndex adds a multi-valued secondary index to the entity.
// Many entities may share an index value; ListByIndex retrieves them all.
func (e *Entity[T]) WithMultiIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// uniqueIndexKey builds the key holding the ID for a unique index value.
func (e *Entity[T]) uniqueIndexKey(name, value string) string {
	return e.prefix + "idx:" + name + ":" + value
}

// multiIndexPrefix builds the shared key prefix of a multi index value.
func (e *Entity[T]) multiIndexPrefix(name, value string) string {
	return e.prefix + "midx:" + name + ":" + value + ":"
}

// indexKeys returns every index key an entity occupies, keyed for writing.
func (e *Entity[T]) indexKeys(idx index[T], entity *T, entityID string) []string {
	values := idx.keyGen(entity)
	keys := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if idx.unique {
			keys = append(keys, e.uniqueIndexKey(idx.name, v))
		} else {
			keys = append(keys, e.multiIndexPrefix(idx.name, v)+entityID)
		}
	}
	return keys
}

// checkUniqueConflicts fails with ErrAlreadyExists when any unique index key
// is already taken by a different entity. Keys in skip are exempt.
func (e *Entity[T]) checkUniqueConflicts(txn *badger.Txn, idx index[T], keys []string, skip map[string]bool) error {
	if !idx.unique {
		return nil
	}
	for _, key := range keys {
		if skip[key] {
			continue
		}
		_, err := txn.Get([]byte(key))
		if err == nil {
			return fmt.Errorf("index %s conflict on key %s: %w", idx.name, key, ErrAlreadyExists)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check index key: %w", err)
		}
	}
	return nil
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if an entity with this ID (or a conflicting
// unique index value) already exists.
func (e *Entity[T]) Create(ctx context.Context, entityID string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + entityID

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			keys := e.indexKeys(idx, entity, entityID)
			if err := e.checkUniqueConflicts(txn, idx, keys, nil); err != nil {
				return err
			}
		}

		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		for _, idx := range e.indexes {
			for _, idxKey := range e.indexKeys(idx, entity, entityID) {
				if err := txn.Set([]byte(idxKey), []byte(entityID)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}

		return nil
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, entityID string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := e.prefix + entityID
	var entity T

	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index.
// If the index has a lookup transform, it is applied to value first.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transformedValue := value
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			transformedValue = idx.lookupTransform(value)
			break
		}
	}

	indexKey := []byte(e.uniqueIndexKey(indexName, transformedValue))

	var entityID string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			entityID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return e.Get(ctx, entityID)
}

// ListByIndex retrieves all entities sharing a multi-valued index value.
// Returns an empty slice when no entity matches.
func (e *Entity[T]) ListByIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanPrefix := []byte(e.multiIndexPrefix(indexName, value))

	var ids []string
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, key[len(scanPrefix):])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0, len(ids))
	for _, entityID := range ids {
		entity, err := e.Get(ctx, entityID)
		if err != nil {
			// An index entry pointing at a deleted document is skipped
			// rather than failing the whole listing.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, nil
}

// Update updates an existing entity, rewriting its index entries.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, entityID string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + entityID

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var oldEntity T
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get existing key: %w", err)
		}

		err = item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &oldEntity); err != nil {
				return fmt.Errorf("failed to unmarshal old entity: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			oldKeys := e.indexKeys(idx, &oldEntity, entityID)
			newKeys := e.indexKeys(idx, entity, entityID)

			oldSet := make(map[string]bool, len(oldKeys))
			for _, k := range oldKeys {
				oldSet[k] = true
			}

			if err := e.checkUniqueConflicts(txn, idx, newKeys, oldSet); err != nil {
				return err
			}

			// Drop entries the entity no longer occupies.
			newSet := make(map[string]bool, len(newKeys))
			for _, k := range newKeys {
				newSet[k] = true
			}
			for _, k := range oldKeys {
				if newSet[k] {
					continue
				}
				if err := txn.Delete([]byte(k)); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}

			for _, k := range newKeys {
				if err := txn.Set([]byte(k), []byte(entityID)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}

		if err := txn.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		return nil
	})
}

// Delete deletes an entity by ID along with its index entries.
// This operation is idempotent - it does not return an error if the entity
// does not exist.
func (e *Entity[T]) Delete(ctx context.Context, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := e.prefix + entityID

	return e.store.db.Update(func(txn *badger.Txn) error {
		var entity T
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Idempotent - no error if doesn't exist
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		err = item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			for _, idxKey := range e.indexKeys(idx, &entity, entityID) {
				if err := txn.Delete([]byte(idxKey)); err != nil {
					return fmt.Errorf("failed to delete index key: %w", err)
				}
			}
		}

		if err := txn.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}

		return nil
	})
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		//nolint:errcheck // Iteration errors are delivered through yield.
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index entries.
				key := string(it.Item().Key())
				remainder := key[len(e.prefix):]
				if strings.HasPrefix(remainder, "idx:") || strings.HasPrefix(remainder, "midx:") {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}

			return nil
		})
	}
}
