package testing

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/ValentinKolb/kvcore/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("Len", func(t *testing.T) {
			testLen(t, factory())
		})

		t.Run("Range", func(t *testing.T) {
			testRange(t, factory())
		})

		t.Run("RandomKey", func(t *testing.T) {
			testRandomKey(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustSet(t testing.TB, database db.KVDB, key string, value []byte) bool {
	t.Helper()
	updated, err := database.Set([]byte(key), value)
	if err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
	return updated
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if mustSet(t, database, testKey, testValue1) {
		t.Errorf("Expected first Set of %s to be an insert", testKey)
	}

	result, exists := database.Get([]byte(testKey))
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	if !mustSet(t, database, testKey, testValue2) {
		t.Errorf("Expected second Set of %s to be an update", testKey)
	}

	result, exists = database.Get([]byte(testKey))
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}

	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists = database.Get([]byte("nonexistent-key"))
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _ := database.Get([]byte(testKey))
	retrievedValue[0] = 'X'

	originalValue, _ := database.Get([]byte(testKey))
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// the engine must not keep a reference to the caller's buffers
	key := []byte("owned-key")
	value := []byte("owned-value")
	mustSet(t, database, string(key), value)
	copy(value, "XXXXX")
	result, _ = database.Get([]byte("owned-key"))
	if !bytes.Equal(result, []byte("owned-value")) {
		t.Errorf("Set should copy the value, got %s", result)
	}

	updatedValue := []byte("updated-value with a longer payload than before")
	mustSet(t, database, testKey, updatedValue)

	result, exists = database.Get([]byte(testKey))
	if !exists {
		t.Errorf("Expected key %s to exist after update", testKey)
	}

	if !bytes.Equal(result, updatedValue) {
		t.Errorf("Expected updated value %s, got %s", updatedValue, result)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	testKey := "delete-test-key"
	mustSet(t, database, testKey, []byte("delete-test-value"))

	if !database.Delete([]byte(testKey)) {
		t.Errorf("Expected Delete of existing key to report true")
	}

	if _, exists := database.Get([]byte(testKey)); exists {
		t.Errorf("Expected key %s to be deleted", testKey)
	}

	if database.Delete([]byte(testKey)) {
		t.Errorf("Expected second Delete to report false")
	}

	if database.Delete([]byte("nonexistent-key")) {
		t.Errorf("Expected Delete of nonexistent key to report false")
	}

	// key can be set again
	mustSet(t, database, testKey, []byte("again"))
	result, exists := database.Get([]byte(testKey))
	if !exists || !bytes.Equal(result, []byte("again")) {
		t.Errorf("Expected key %s to be set again after Delete", testKey)
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureHas)
	requireFeature(t, database, db.FeatureDelete)

	testKey := "has-test-key"

	if database.Has([]byte(testKey)) {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	mustSet(t, database, testKey, []byte("has-test-value"))

	if !database.Has([]byte(testKey)) {
		t.Errorf("Expected Has to return true after Set")
	}

	database.Delete([]byte(testKey))

	if database.Has([]byte(testKey)) {
		t.Errorf("Expected Has to return false after Delete")
	}
}

func testLen(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureDelete|db.FeatureLen)

	if database.Len() != 0 {
		t.Errorf("Expected new database to be empty, got %d", database.Len())
	}

	for i := 0; i < 100; i++ {
		mustSet(t, database, fmt.Sprintf("len-%d", i), []byte("v"))
	}
	if database.Len() != 100 {
		t.Errorf("Expected 100 entries, got %d", database.Len())
	}

	// updates don't change the count
	for i := 0; i < 100; i += 3 {
		mustSet(t, database, fmt.Sprintf("len-%d", i), []byte("updated"))
	}
	if database.Len() != 100 {
		t.Errorf("Expected 100 entries after updates, got %d", database.Len())
	}

	for i := 0; i < 50; i++ {
		database.Delete([]byte(fmt.Sprintf("len-%d", i)))
	}
	if database.Len() != 50 {
		t.Errorf("Expected 50 entries after deletes, got %d", database.Len())
	}
}

func testRange(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRange)

	expected := make(map[string]string)
	for i := 0; i < 200; i++ {
		k, v := fmt.Sprintf("range-%d", i), fmt.Sprintf("value-%d", i)
		expected[k] = v
		mustSet(t, database, k, []byte(v))
	}

	seen := make(map[string]string)
	database.Range(func(key, value []byte) bool {
		if _, dup := seen[string(key)]; dup {
			t.Errorf("Range visited key %s twice", key)
		}
		seen[string(key)] = string(value)
		return true
	})

	if len(seen) != len(expected) {
		t.Errorf("Range visited %d keys, expected %d", len(seen), len(expected))
	}
	for k, v := range expected {
		if seen[k] != v {
			t.Errorf("Range returned %q for %s, expected %q", seen[k], k, v)
		}
	}

	// early stop
	calls := 0
	database.Range(func(_, _ []byte) bool {
		calls++
		return calls < 5
	})
	if calls != 5 {
		t.Errorf("Expected Range to stop after 5 calls, got %d", calls)
	}
}

func testRandomKey(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureRandomKey)

	if _, ok := database.RandomKey(); ok {
		t.Errorf("Expected RandomKey on empty database to return false")
	}

	keys := make(map[string]bool)
	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("random-%d", i)
		keys[k] = true
		mustSet(t, database, k, []byte("v"))
	}

	for i := 0; i < 100; i++ {
		k, ok := database.RandomKey()
		if !ok {
			t.Fatalf("Expected RandomKey to return a key")
		}
		if !keys[string(k)] {
			t.Errorf("RandomKey returned unknown key %s", k)
		}
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)

	emptyKey := ""
	emptyKeyValue := []byte("value for empty key")

	mustSet(t, database, emptyKey, emptyKeyValue)

	result, exists := database.Get([]byte(emptyKey))
	if !exists {
		t.Errorf("Empty key not found after Set")
	} else if !bytes.Equal(result, emptyKeyValue) {
		t.Errorf("Value mismatch for empty key")
	}

	emptyValueKey := "empty-value-key"
	mustSet(t, database, emptyValueKey, []byte{})

	result, exists = database.Get([]byte(emptyValueKey))
	if !exists {
		t.Errorf("Key for empty value not found after Set")
	} else if result == nil || len(result) != 0 {
		t.Errorf("Expected non-nil empty value, got %v", result)
	}

	nilValueKey := "nil-value-key"
	mustSet(t, database, nilValueKey, nil)

	result, exists = database.Get([]byte(nilValueKey))
	if !exists {
		t.Errorf("Key for nil value not found after Set")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	if !t.Failed() {

		// 253 and above use the long length encoding of compact engines
		for _, n := range []int{252, 253, 254, 1000} {
			largeKey := string(bytes.Repeat([]byte{'k'}, n))
			largeKeyValue := []byte(fmt.Sprintf("value for key of length %d", n))

			mustSet(t, database, largeKey, largeKeyValue)

			result, exists = database.Get([]byte(largeKey))
			if !exists {
				t.Errorf("Key of length %d not found after Set", n)
			} else if !bytes.Equal(result, largeKeyValue) {
				t.Errorf("Value mismatch for key of length %d", n)
			}
		}

		largeValueKey := "large-value-key"
		largeValue := make([]byte, 1024*1024)

		for i := range largeValue {
			largeValue[i] = byte(i % 256)
		}

		mustSet(t, database, largeValueKey, largeValue)

		result, exists = database.Get([]byte(largeValueKey))
		if !exists {
			t.Errorf("Key for large value not found after Set")
		} else if !bytes.Equal(result, largeValue) {

			headMismatch := !bytes.Equal(result[:10], largeValue[:10])
			tailMismatch := !bytes.Equal(result[len(result)-10:], largeValue[len(largeValue)-10:])
			if headMismatch || tailMismatch || len(result) != len(largeValue) {
				t.Errorf("Large value mismatch: Head mismatch=%v, Tail mismatch=%v, Size mismatch=%v",
					headMismatch, tailMismatch, len(result) != len(largeValue))
			}
		}
	}
}

func testCollisionHandling(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		value := []byte(fmt.Sprintf("value-%d", i))

		mustSet(t, database, key, value)
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := []byte(fmt.Sprintf("value-%d", i))

		actualValue, exists := database.Get([]byte(key))
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}

		if !bytes.Equal(actualValue, expectedValue) {
			t.Errorf("Value for key %s does not match: expected %s, got %s",
				key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		key := fmt.Sprintf("%s%d", prefix, i)
		database.Delete([]byte(key))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists := database.Get([]byte(key))

		if i%2 == 0 {
			if exists {
				t.Errorf("Key %s should be deleted", key)
			}
		} else {
			if !exists {
				t.Errorf("Key %s should still exist", key)
			}
		}
	}
}

// testRealisticUsage replays a mixed workload and compares the database
// against a plain map after every step
func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)
	requireFeature(t, database, db.FeatureGet)
	requireFeature(t, database, db.FeatureDelete)

	r := rand.New(rand.NewPCG(1, 2))
	model := make(map[string][]byte)
	numOperations := 5_000

	for i := 0; i < numOperations; i++ {
		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", r.IntN(500))
		}

		switch i % 10 {
		case 0, 1, 2, 3, 4, 5, 6:
			valueSize := r.IntN(64)
			if i%10 == 0 {
				valueSize = 300
			}
			value := make([]byte, valueSize)
			for j := range value {
				value[j] = byte((i + j) % 256)
			}

			_, existed := model[key]
			if updated := mustSet(t, database, key, value); updated != existed {
				t.Fatalf("op %d: Set(%s) updated=%v, expected %v", i, key, updated, existed)
			}
			model[key] = value
		case 7, 8:
			got, ok := database.Get([]byte(key))
			want, exists := model[key]
			if ok != exists || !bytes.Equal(got, want) {
				t.Fatalf("op %d: Get(%s) = %v/%v, expected %v/%v", i, key, got, ok, want, exists)
			}
		case 9:
			_, existed := model[key]
			if deleted := database.Delete([]byte(key)); deleted != existed {
				t.Fatalf("op %d: Delete(%s) = %v, expected %v", i, key, deleted, existed)
			}
			delete(model, key)
		}
	}

	for key, want := range model {
		got, ok := database.Get([]byte(key))
		if !ok || !bytes.Equal(got, want) {
			t.Errorf("Key %s has value %v, expected %v", key, got, want)
		}
	}

	if database.SupportsFeature(db.FeatureLen) && database.Len() != len(model) {
		t.Errorf("Expected %d entries, got %d", len(model), database.Len())
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet)

	for i := 0; i < 10; i++ {
		mustSet(t, database, fmt.Sprintf("info-%d", i), []byte("value"))
	}

	info := database.GetInfo()
	if info.Entries != 10 {
		t.Errorf("Expected info to report 10 entries, got %d", info.Entries)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected positive size, got %d", info.SizeBytes)
	}
	if info.DbType == "" {
		t.Errorf("Expected a database type")
	}
	for _, f := range info.SupportedFeatures {
		if !database.SupportsFeature(f) {
			t.Errorf("Info lists feature %s that is not supported", f)
		}
	}
}
