package negotiate_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illuscio-dev/negotools-go/negotiate"
)

func TestMemoReturnsComputedValue(test *testing.T) {
	assert := assert.New(test)

	computeCount := 0
	memo, err := negotiate.NewMemo(8, func(key string) interface{} {
		computeCount++
		return "value for " + key
	})
	assert.Nil(err)

	assert.Equal("value for a", memo.Get("a"))
	assert.Equal("value for a", memo.Get("a"))
	assert.Equal(1, computeCount)

	assert.Equal("value for b", memo.Get("b"))
	assert.Equal(2, computeCount)
	assert.Equal(2, memo.Len())
}

func TestMemoEvictionDoesNotChangeResults(test *testing.T) {
	assert := assert.New(test)

	memo, err := negotiate.NewMemo(2, func(key string) interface{} {
		return "value for " + key
	})
	assert.Nil(err)

	// Cycle far more keys than the capacity holds.
	for index := 0; index < 100; index++ {
		key := strconv.Itoa(index % 5)
		assert.Equal("value for "+key, memo.Get(key))
	}

	assert.True(memo.Len() <= 2)
}

func TestMemoInvalidCapacity(test *testing.T) {
	memo, err := negotiate.NewMemo(-1, func(key string) interface{} {
		return key
	})

	assert.Nil(test, memo)
	assert.Error(test, err)
}

// Memoized negotiation must agree with the pure algorithms for every header,
// regardless of cache churn.
func TestCachedMatchesPure(test *testing.T) {
	assert := assert.New(test)

	registry := createRegistry(test, "iso-8859-1")

	// Capacity of 2 forces constant eviction across these headers.
	cached, err := negotiate.NewCached(registry, 2)
	assert.Nil(err)
	assert.Equal(registry, cached.Registry())

	contentTypeHeaders := []string{
		"",
		"application/json",
		"application/json; charset=ascii",
		"application/msgpack",
		"text/csv",
	}
	acceptHeaders := []string{
		"",
		"application/json",
		"text/plain, application/json",
		"text/csv",
		"application/yaml;q=0.5, application/bson",
	}
	charsetHeaders := []string{
		"",
		"utf-8, iso-8859-1;q=0.5",
		"utf-16",
		"*;q=0.1",
	}

	for round := 0; round < 3; round++ {
		for _, header := range contentTypeHeaders {
			pureFormat, pureCharset := negotiate.ContentType(registry, header)
			cachedFormat, cachedCharset := cached.ContentType(header)
			assert.Equal(pureFormat, cachedFormat, header)
			assert.Equal(pureCharset, cachedCharset, header)
		}

		for _, header := range acceptHeaders {
			pureFormat, pureContentType := negotiate.Accept(registry, header)
			cachedFormat, cachedContentType := cached.Accept(header)
			assert.Equal(pureFormat, cachedFormat, header)
			assert.Equal(pureContentType, cachedContentType, header)
		}

		for _, header := range charsetHeaders {
			assert.Equal(
				negotiate.AcceptCharset(registry, header),
				cached.AcceptCharset(header),
				header,
			)
		}
	}
}

func TestCachedConcurrentAccess(test *testing.T) {
	registry := createRegistry(test)

	cached, err := negotiate.NewCached(registry, 4)
	if err != nil {
		test.Fatal(err)
	}

	headers := []string{
		"application/json",
		"application/msgpack",
		"application/yaml",
		"text/plain",
		"text/csv",
		"",
	}

	waitGroup := sync.WaitGroup{}
	for worker := 0; worker < 8; worker++ {
		waitGroup.Add(1)
		go func(offset int) {
			defer waitGroup.Done()
			for index := 0; index < 200; index++ {
				header := headers[(index+offset)%len(headers)]
				cached.ContentType(header)
				cached.Accept(header)
				cached.AcceptCharset("utf-8, iso-8859-1;q=0.5")
			}
		}(worker)
	}
	waitGroup.Wait()

	format, _ := cached.ContentType("application/json")
	assert.Equal(test, "json", format)
}
