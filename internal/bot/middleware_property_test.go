package bot

import (
	"testing"

	"pgregory.net/rapid"

	"minecraft-rewind/internal/config"
)

// TestAdminCheckProperty verifies a user is admin exactly when their ID is
// in the configured list.
func TestAdminCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1_000_000_000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Bot: config.BotConfig{AdminIDs: adminIDs}}

		userID := rapid.Int64Range(1, 1_000_000_000).Draw(t, "userID")

		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}
		if got := cfg.IsAdmin(userID); got != expected {
			t.Fatalf("IsAdmin(%d) = %v, want %v (admins %v)", userID, got, expected, adminIDs)
		}

		// A known admin is always recognized.
		known := adminIDs[rapid.IntRange(0, len(adminIDs)-1).Draw(t, "adminIndex")]
		if !cfg.IsAdmin(known) {
			t.Fatalf("known admin %d not recognized", known)
		}
	})
}

// TestChatWhitelistProperty verifies a chat is allowed exactly when its ID is
// whitelisted. Group chat IDs are negative in Telegram.
func TestChatWhitelistProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Int64Range(1, 1_000_000_000), 1, 10).Draw(t, "chatIDs")
		chatIDs := make([]int64, len(raw))
		for i, id := range raw {
			chatIDs[i] = -id
		}
		cfg := &config.Config{Bot: config.BotConfig{Chats: chatIDs}}

		testChat := -rapid.Int64Range(1, 1_000_000_000).Draw(t, "testChat")

		expected := false
		for _, id := range chatIDs {
			if id == testChat {
				expected = true
				break
			}
		}
		if got := cfg.IsChatAllowed(testChat); got != expected {
			t.Fatalf("IsChatAllowed(%d) = %v, want %v (whitelist %v)", testChat, got, expected, chatIDs)
		}

		known := chatIDs[rapid.IntRange(0, len(chatIDs)-1).Draw(t, "chatIndex")]
		if !cfg.IsChatAllowed(known) {
			t.Fatalf("whitelisted chat %d rejected", known)
		}
	})
}

// TestEmptyWhitelistAllowsAllChats covers the open-by-default case.
func TestEmptyWhitelistAllowsAllChats(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := &config.Config{Bot: config.BotConfig{Chats: []int64{}}}
		chatID := -rapid.Int64Range(1, 1_000_000_000).Draw(t, "chatID")
		if !cfg.IsChatAllowed(chatID) {
			t.Fatalf("empty whitelist should allow chat %d", chatID)
		}
	})
}
