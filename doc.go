// Package tileroom 提供一個即時多人拼牌遊戲的會話服務器。
//
// 玩家建立或加入房間，從牌組抽牌、把數字彩色牌擺上共享盤面，
// 並在回合制規則下輪流行動；回合結束前服務器會驗證整個盤面
// 的合法性。核心功能：
//
// # 房間與會話管理
//
// 每個房間是一場獨立的遊戲：
//   - 隨機唯一房間碼（6 位小寫字母）
//   - 玩家加入、斷線與同名重連（回收原回合順位）
//   - 全員斷線或有人獲勝時房間自行終止並從註冊表移除
//
// # 回合狀態機
//
// 房間狀態由單一 goroutine 獨占（mailbox/actor 紀律）：
//   - 所有客戶端事件經收件匣串行處理，回合檢查可線性化
//   - 加入握手透過回覆 channel 同步完成
//   - 單一玩家投遞失敗隔離為隱性斷線，不影響其他人
//
// # 盤面驗證
//
// 回合結束時以列為主掃描盤面，連續的牌構成組：
//   - 順子：同花色、數字連續遞增
//   - 同數組：同數字、花色互不重複
//   - 鬼牌為萬用牌，可補缺口
//
// # WebSocket 通訊
//
// 每則訊息一個文字幀，帶類型標記的封閉訊息集合：
//   - 未知類型或缺欄位視為協議錯誤，直接斷線
//   - 控制幀心跳（Ping/Pong）偵測死連接
//   - 每條連接一讀一寫兩個迴圈，外送有序
//
// # 使用範例
//
// 啟動服務器：
//
//	registry := server.NewRegistry(logger)
//	sessions := server.NewSessionHandler(registry, logger)
//	mux.HandleFunc("GET /ws", sessions.ServeWS)
//	log.Fatal(http.ListenAndServe(":8080", mux))
//
// # 架構設計
//
// 系統採用分層架構設計：
//   - game 層：純遊戲狀態與驗證演算法，無 I/O
//   - protocol 層：線上訊息的編解碼
//   - server 層：房間 actor、註冊表與連接會話
//
// # 配置選項
//
// 支援多種運行時配置：
//   - -port：明文端口（預設 8080）
//   - -tls-port / -tls-cert / -tls-key：加密變體
//   - -log-level：日誌級別（debug/info/warn/error）
//   - -log-format：日誌格式（text/json）
package tileroom
